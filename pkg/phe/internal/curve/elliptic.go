package curve

import (
	"crypto/elliptic"
	"math/big"

	"go.dedis.ch/kyber/v3"
)

// ellipticArithmetic runs point arithmetic on crypto/elliptic for the curves kyber has no suite
// for.
type ellipticArithmetic struct {
	ec elliptic.Curve
	p  *big.Int
}

func (a *ellipticArithmetic) isOnCurve(x, y *big.Int) bool {
	return a.ec.IsOnCurve(x, y)
}

func (a *ellipticArithmetic) add(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int) {
	return a.ec.Add(x1, y1, x2, y2)
}

func (a *ellipticArithmetic) neg(x, y *big.Int) (*big.Int, *big.Int) {
	return x, new(big.Int).Sub(a.p, y)
}

func (a *ellipticArithmetic) mul(x, y *big.Int, k kyber.Scalar) (*big.Int, *big.Int) {
	return a.ec.ScalarMult(x, y, scalarBytes(k))
}

func (a *ellipticArithmetic) baseMul(k kyber.Scalar) (*big.Int, *big.Int) {
	return a.ec.ScalarBaseMult(scalarBytes(k))
}
