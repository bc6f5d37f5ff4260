package curve

import (
	"crypto/subtle"
	"math/big"
)

// Point is an immutable point on a specific curve, in affine coordinates. The zero-coordinate
// point is the identity.
type Point struct {
	c    *Curve
	x, y *big.Int
}

// X returns a copy of the x coordinate.
func (p *Point) X() *big.Int {
	return new(big.Int).Set(p.x)
}

// Y returns a copy of the y coordinate.
func (p *Point) Y() *big.Int {
	return new(big.Int).Set(p.y)
}

// IsIdentity returns true if p is the point at infinity.
func (p *Point) IsIdentity() bool {
	return p.x.Sign() == 0 && p.y.Sign() == 0
}

// Bytes returns the uncompressed SEC 1 encoding of p, or a single zero byte for the identity.
func (p *Point) Bytes() []byte {
	if p.IsIdentity() {
		return []byte{0x00}
	}

	size := p.c.fieldSize
	b := make([]byte, 1+2*size)
	b[0] = 0x04
	p.x.FillBytes(b[1 : 1+size])
	p.y.FillBytes(b[1+size:])

	return b
}

// Equal returns true if p and q are the same point on the same curve. It runs in constant time for
// points of equal size.
func (p *Point) Equal(q *Point) bool {
	return p.c == q.c && subtle.ConstantTimeCompare(p.Bytes(), q.Bytes()) == 1
}

// String returns the point as decimal coordinates.
func (p *Point) String() string {
	if p.IsIdentity() {
		return "(identity)"
	}

	return "(" + p.x.String() + ", " + p.y.String() + ")"
}
