package curve

import (
	"math/big"

	"go.dedis.ch/kyber/v3"
)

// nistArithmetic runs point arithmetic on a kyber NIST suite. Points cross the boundary in their
// uncompressed SEC 1 form, which kyber validates on the way in.
type nistArithmetic struct {
	g         kyber.Group
	fieldSize int
}

func (a *nistArithmetic) isOnCurve(x, y *big.Int) bool {
	_, err := a.decode(x, y)

	return err == nil
}

func (a *nistArithmetic) add(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int) {
	return a.encode(a.g.Point().Add(a.mustDecode(x1, y1), a.mustDecode(x2, y2)))
}

func (a *nistArithmetic) neg(x, y *big.Int) (*big.Int, *big.Int) {
	return a.encode(a.g.Point().Neg(a.mustDecode(x, y)))
}

func (a *nistArithmetic) mul(x, y *big.Int, k kyber.Scalar) (*big.Int, *big.Int) {
	return a.encode(a.g.Point().Mul(k, a.mustDecode(x, y)))
}

func (a *nistArithmetic) baseMul(k kyber.Scalar) (*big.Int, *big.Int) {
	return a.encode(a.g.Point().Mul(k, nil))
}

func (a *nistArithmetic) decode(x, y *big.Int) (kyber.Point, error) {
	b := make([]byte, 1+2*a.fieldSize)
	b[0] = 0x04
	x.FillBytes(b[1 : 1+a.fieldSize])
	y.FillBytes(b[1+a.fieldSize:])

	p := a.g.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}

	return p, nil
}

func (a *nistArithmetic) mustDecode(x, y *big.Int) kyber.Point {
	p, err := a.decode(x, y)
	if err != nil {
		panic(err)
	}

	return p
}

// encode returns the affine coordinates of p. kyber encodes the identity as (0, 0).
func (a *nistArithmetic) encode(p kyber.Point) (*big.Int, *big.Int) {
	b, err := p.MarshalBinary()
	if err != nil {
		panic(err)
	}

	return new(big.Int).SetBytes(b[1 : 1+a.fieldSize]), new(big.Int).SetBytes(b[1+a.fieldSize:])
}
