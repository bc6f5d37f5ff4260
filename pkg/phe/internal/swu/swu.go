// Package swu maps arbitrary digests to curve points with the simplified Shallue-van de
// Woestijne-Ulas construction of Brier et al., for curves y² = x³ + Ax + B over GF(P) with
// P ≡ 3 (mod 4) and A, B ≠ 0.
//
// Given a field element t:
//
//     α  = -t²
//     x2 = (-B/A) · (1 + 1/(α² + α))
//     x3 = α · x2
//     h2 = x2³ + A·x2 + B
//     e  = h2^((P-3)/4)
//
// If e²·h2 = 1 then h2 is a square and the point is (x2, e·h2). Otherwise α³·h2 = g(x3) is a square
// and the point is (x3, t³·e·h2). The choice between the two is made with a constant-time copy over
// fixed-width encodings rather than a branch.
//
// α² + α vanishes exactly when t ∈ {0, 1, -1}. Those inputs are replaced by t = 2 before the map,
// again with a constant-time copy, so that every digest maps to a valid point.
//
// See https://eprint.iacr.org/2009/340.pdf
package swu

import (
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/codahale/phe/pkg/phe/internal/curve"
	"golang.org/x/xerrors"
)

// degenerateFallback replaces field elements for which α² + α = 0.
const degenerateFallback = 2

// Mapper is a deterministic hash-to-point map for a single group. It is safe for concurrent use.
type Mapper struct {
	g    curve.Group
	p    *big.Int
	a, b *big.Int
	mba  *big.Int // -B/A
	p34  *big.Int // (P-3)/4
	pm2  *big.Int // P-2
	size int
	one  []byte
	fb   []byte
}

// New validates the group's parameters and precomputes the map's constants.
func New(g curve.Group) (*Mapper, error) {
	params := g.Params()
	p := params.P

	switch {
	case !p.ProbablyPrime(20):
		return nil, xerrors.Errorf("swu: %s: modulus is not prime", params.Name)
	case p.Bit(0) != 1 || p.Bit(1) != 1:
		return nil, xerrors.Errorf("swu: %s: modulus is not 3 mod 4", params.Name)
	case g.FieldReduce(params.A).Sign() == 0:
		return nil, xerrors.Errorf("swu: %s: A is zero", params.Name)
	case g.FieldReduce(params.B).Sign() == 0:
		return nil, xerrors.Errorf("swu: %s: B is zero", params.Name)
	}

	pm2 := new(big.Int).Sub(p, big.NewInt(2))

	// -B/A
	mba := new(big.Int).Neg(params.B)
	mba.Mul(mba, g.FieldExp(g.FieldReduce(params.A), pm2))

	m := &Mapper{
		g:    g,
		p:    p,
		a:    g.FieldReduce(params.A),
		b:    g.FieldReduce(params.B),
		mba:  g.FieldReduce(mba),
		p34:  new(big.Int).Rsh(new(big.Int).Sub(p, big.NewInt(3)), 2),
		pm2:  pm2,
		size: g.FieldSize(),
	}
	m.one = big.NewInt(1).FillBytes(make([]byte, m.size))
	m.fb = big.NewInt(degenerateFallback).FillBytes(make([]byte, m.size))

	return m, nil
}

// DataToPoint hashes data with SHA-512, truncates the digest to the field size, and maps the result
// to a point.
func (m *Mapper) DataToPoint(data []byte) *curve.Point {
	h := sha512.Sum512(data)

	n := m.size
	if n > len(h) {
		n = len(h)
	}

	return m.MapToPoint(h[:n])
}

// MapToPoint maps a digest of any length to a point. The digest is read as a big-endian integer and
// reduced mod P.
func (m *Mapper) MapToPoint(digest []byte) *curve.Point {
	t := m.g.FieldReduce(new(big.Int).SetBytes(digest))

	// Replace t ∈ {0, 1, -1} with the fallback element.
	tb := t.FillBytes(make([]byte, m.size))
	subtle.ConstantTimeCopy(m.isZero(m.denominator(t)), tb, m.fb)
	t.SetBytes(tb)

	// α = -t²
	alpha := m.mul(t, t)
	alpha.Sub(m.p, alpha)
	alpha = m.g.FieldReduce(alpha)

	// x2 = -B/A · (1 + 1/(α² + α))
	x2 := m.g.FieldExp(m.denominator(t), m.pm2)
	x2.Add(x2, big.NewInt(1))
	x2 = m.mul(x2, m.mba)

	// x3 = α · x2
	x3 := m.mul(alpha, x2)

	// h2 = x2³ + A·x2 + B
	h2 := m.curveRHS(x2)

	// e = h2^((P-3)/4)
	e := m.g.FieldExp(h2, m.p34)

	// h2 is a square iff e²·h2 = 1.
	square := m.equal(m.mul(m.mul(e, e), h2), m.one)

	// y2 = e·h2 = h2^((P+1)/4)
	y2 := m.mul(e, h2)

	// y3 = t³·e·h2
	y3 := m.mul(m.mul(m.mul(t, t), t), y2)

	x := m.cmov(square, x2, x3)
	y := m.cmov(square, y2, y3)

	pt, err := m.g.NewPoint(x, y)
	if err != nil {
		panic(fmt.Sprintf("swu: %s: mapped point is off the curve: %v", m.g.Params().Name, err))
	}

	return pt
}

// denominator returns α² + α = t⁴ - t².
func (m *Mapper) denominator(t *big.Int) *big.Int {
	t2 := m.mul(t, t)

	return m.g.FieldReduce(new(big.Int).Sub(m.mul(t2, t2), t2))
}

// curveRHS returns x³ + A·x + B.
func (m *Mapper) curveRHS(x *big.Int) *big.Int {
	v := m.mul(m.mul(x, x), x)
	v.Add(v, m.mul(m.a, x))
	v.Add(v, m.b)

	return m.g.FieldReduce(v)
}

func (m *Mapper) mul(a, b *big.Int) *big.Int {
	return m.g.FieldReduce(new(big.Int).Mul(a, b))
}

func (m *Mapper) isZero(v *big.Int) int {
	return subtle.ConstantTimeCompare(v.FillBytes(make([]byte, m.size)), make([]byte, m.size))
}

func (m *Mapper) equal(v *big.Int, b []byte) int {
	return subtle.ConstantTimeCompare(v.FillBytes(make([]byte, m.size)), b)
}

// cmov returns a if choice is 1 and b if choice is 0.
func (m *Mapper) cmov(choice int, a, b *big.Int) *big.Int {
	out := b.FillBytes(make([]byte, m.size))
	subtle.ConstantTimeCopy(choice, out, a.FillBytes(make([]byte, m.size)))

	return new(big.Int).SetBytes(out)
}
