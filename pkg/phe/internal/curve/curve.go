// Package curve adapts short Weierstrass curves into the field and group primitives PHE needs.
//
// PHE never does its own group arithmetic. The hash-to-point map and the evaluator consume the
// Group interface, and *Curve implements it with kyber. P-256, the PHE curve, uses kyber's NIST
// suite for points and scalars. P-384 and P-521 have no kyber suite, so their point arithmetic comes
// from crypto/elliptic while their scalars still use kyber's modular integers.
//
// Points can only be built through checked constructors, so any *Point handed to a caller is either
// on its curve or the identity produced by group arithmetic. Every point remembers its curve, and
// group operations on another curve's points fail with ErrInvalidPoint.
package curve

import (
	"crypto/elliptic"
	"io"
	"math/big"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/mod"
	"go.dedis.ch/kyber/v3/group/nist"
	"golang.org/x/xerrors"
)

var (
	// ErrInvalidPoint is returned when a point is not on the curve, belongs to another curve, or its
	// encoding is malformed.
	ErrInvalidPoint = xerrors.New("invalid point")

	// ErrInvalidScalar is returned when a scalar encoding is malformed or out of range.
	ErrInvalidScalar = xerrors.New("invalid scalar")
)

// Params are the immutable parameters of a curve y² = x³ + Ax + B over GF(P) with a base point of
// prime order N. Callers must not modify the values.
type Params struct {
	Name   string
	P      *big.Int // field prime
	N      *big.Int // group order
	A, B   *big.Int // curve coefficients, reduced mod P
	Gx, Gy *big.Int // base point
}

// Group is the set of field and group primitives the PHE core consumes.
type Group interface {
	Params() *Params

	FieldSize() int  // length of an encoded field element in bytes
	ScalarSize() int // length of an encoded scalar in bytes
	PointSize() int  // length of an uncompressed point encoding in bytes

	FieldReduce(v *big.Int) *big.Int
	FieldExp(base, exp *big.Int) *big.Int

	NewPoint(x, y *big.Int) (*Point, error)
	DecodePoint(b []byte) (*Point, error)
	Generator() *Point
	IsOnCurve(p *Point) bool
	Add(p, q *Point) (*Point, error)
	Negate(p *Point) (*Point, error)
	ScalarMult(p *Point, k *Scalar) (*Point, error)
	ScalarBaseMult(k *Scalar) *Point

	NewScalar(b []byte) (*Scalar, error)
	ScalarFromWideBytes(b []byte) *Scalar
	RandomScalar(rand io.Reader) (*Scalar, error)
}

// arithmetic is the point arithmetic behind a Curve, in affine coordinates with (0, 0) as the
// identity. Curve checks its inputs belong to the curve before calling it.
type arithmetic interface {
	isOnCurve(x, y *big.Int) bool
	add(x1, y1, x2, y2 *big.Int) (x, y *big.Int)
	neg(x, y *big.Int) (*big.Int, *big.Int)
	mul(x, y *big.Int, k kyber.Scalar) (*big.Int, *big.Int)
	baseMul(k kyber.Scalar) (*big.Int, *big.Int)
}

// Curve is a Group over a NIST curve with A = -3.
type Curve struct {
	params     *Params
	arith      arithmetic
	scalar     func() kyber.Scalar
	fieldSize  int
	scalarSize int
}

//nolint:gochecknoglobals // immutable curve instances
var (
	p256 = newP256()
	p384 = newEllipticCurve(elliptic.P384())
	p521 = newEllipticCurve(elliptic.P521())
)

// P256 returns the NIST P-256 group.
func P256() *Curve { return p256 }

// P384 returns the NIST P-384 group.
func P384() *Curve { return p384 }

// P521 returns the NIST P-521 group.
func P521() *Curve { return p521 }

// ByName returns the group with the given name ("P-256", "P-384" or "P-521").
func ByName(name string) (*Curve, error) {
	switch name {
	case "P-256":
		return p256, nil
	case "P-384":
		return p384, nil
	case "P-521":
		return p521, nil
	default:
		return nil, xerrors.Errorf("unknown curve %q", name)
	}
}

func newP256() *Curve {
	suite := nist.NewBlakeSHA256P256()
	cp := elliptic.P256().Params()

	return newCurve(cp, &nistArithmetic{g: suite, fieldSize: fieldSize(cp)}, suite.Scalar)
}

func newEllipticCurve(ec elliptic.Curve) *Curve {
	cp := ec.Params()

	return newCurve(cp, &ellipticArithmetic{ec: ec, p: cp.P}, func() kyber.Scalar {
		return mod.NewInt64(0, cp.N)
	})
}

func newCurve(cp *elliptic.CurveParams, arith arithmetic, scalar func() kyber.Scalar) *Curve {
	return &Curve{
		params: &Params{
			Name: cp.Name,
			P:    new(big.Int).Set(cp.P),
			N:    new(big.Int).Set(cp.N),
			A:    new(big.Int).Sub(cp.P, big.NewInt(3)),
			B:    new(big.Int).Set(cp.B),
			Gx:   new(big.Int).Set(cp.Gx),
			Gy:   new(big.Int).Set(cp.Gy),
		},
		arith:      arith,
		scalar:     scalar,
		fieldSize:  fieldSize(cp),
		scalarSize: (cp.N.BitLen() + 7) / 8,
	}
}

func fieldSize(cp *elliptic.CurveParams) int {
	return (cp.P.BitLen() + 7) / 8
}

// Params returns the curve parameters.
func (c *Curve) Params() *Params {
	return c.params
}

// String returns the curve name.
func (c *Curve) String() string {
	return c.params.Name
}

func (c *Curve) FieldSize() int  { return c.fieldSize }
func (c *Curve) ScalarSize() int { return c.scalarSize }
func (c *Curve) PointSize() int  { return 1 + 2*c.fieldSize }

// FieldReduce returns v mod P as a new value.
func (c *Curve) FieldReduce(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, c.params.P)
}

// FieldExp returns base^exp mod P as a new value.
func (c *Curve) FieldExp(base, exp *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, c.params.P)
}

// NewPoint returns the point (x, y), or ErrInvalidPoint if it does not satisfy the curve equation.
func (c *Curve) NewPoint(x, y *big.Int) (*Point, error) {
	if !c.inField(x) || !c.inField(y) || (x.Sign() == 0 && y.Sign() == 0) || !c.arith.isOnCurve(x, y) {
		return nil, ErrInvalidPoint
	}

	return c.point(x, y), nil
}

// DecodePoint parses an uncompressed SEC 1 point encoding. The identity is rejected.
func (c *Curve) DecodePoint(b []byte) (*Point, error) {
	if len(b) != c.PointSize() || b[0] != 0x04 {
		return nil, ErrInvalidPoint
	}

	return c.NewPoint(
		new(big.Int).SetBytes(b[1:1+c.fieldSize]),
		new(big.Int).SetBytes(b[1+c.fieldSize:]),
	)
}

// Generator returns the base point.
func (c *Curve) Generator() *Point {
	return c.point(c.params.Gx, c.params.Gy)
}

// IsOnCurve returns true if p is an affine point of this curve. The identity is reported as false.
func (c *Curve) IsOnCurve(p *Point) bool {
	return c.contains(p) == nil && !p.IsIdentity() && c.arith.isOnCurve(p.x, p.y)
}

// Add returns p + q.
func (c *Curve) Add(p, q *Point) (*Point, error) {
	if err := c.contains(p, q); err != nil {
		return nil, err
	}

	switch {
	case p.IsIdentity():
		return q, nil
	case q.IsIdentity():
		return p, nil
	}

	return c.point(c.arith.add(p.x, p.y, q.x, q.y)), nil
}

// Negate returns -p.
func (c *Curve) Negate(p *Point) (*Point, error) {
	if err := c.contains(p); err != nil {
		return nil, err
	}

	if p.IsIdentity() {
		return p, nil
	}

	return c.point(c.arith.neg(p.x, p.y)), nil
}

// ScalarMult returns k·p.
func (c *Curve) ScalarMult(p *Point, k *Scalar) (*Point, error) {
	if err := c.contains(p); err != nil {
		return nil, err
	}

	if p.IsIdentity() || k.IsZero() {
		return c.identity(), nil
	}

	return c.point(c.arith.mul(p.x, p.y, k.s)), nil
}

// ScalarBaseMult returns k·G.
func (c *Curve) ScalarBaseMult(k *Scalar) *Point {
	if k.IsZero() {
		return c.identity()
	}

	return c.point(c.arith.baseMul(k.s))
}

func (c *Curve) contains(points ...*Point) error {
	for _, p := range points {
		if p == nil || p.c != c {
			return ErrInvalidPoint
		}
	}

	return nil
}

func (c *Curve) inField(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(c.params.P) < 0
}

func (c *Curve) identity() *Point {
	return c.point(new(big.Int), new(big.Int))
}

// point wraps coordinates produced by group arithmetic on valid points.
func (c *Curve) point(x, y *big.Int) *Point {
	return &Point{
		c: c,
		x: new(big.Int).Set(x),
		y: new(big.Int).Set(y),
	}
}

var _ Group = &Curve{}
