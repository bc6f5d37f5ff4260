package curve

import (
	"crypto/subtle"
	"io"

	"go.dedis.ch/kyber/v3"
)

// Scalar is an immutable integer in [0, N). Every operation returns a new, reduced scalar.
type Scalar struct {
	s kyber.Scalar
}

// NewScalar decodes a fixed-width big-endian scalar. Values >= N are rejected.
func (c *Curve) NewScalar(b []byte) (*Scalar, error) {
	if len(b) != c.scalarSize {
		return nil, ErrInvalidScalar
	}

	s := c.scalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, ErrInvalidScalar
	}

	return &Scalar{s: s}, nil
}

// ScalarFromWideBytes reduces an arbitrary-length big-endian value mod N. Callers should pass at
// least ScalarSize()+16 uniform bytes to keep the bias negligible.
func (c *Curve) ScalarFromWideBytes(b []byte) *Scalar {
	return &Scalar{s: c.scalar().SetBytes(b)}
}

// RandomScalar returns a uniformly random non-zero scalar, reducing ScalarSize()+16 bytes read from
// r.
func (c *Curve) RandomScalar(r io.Reader) (*Scalar, error) {
	b := make([]byte, c.scalarSize+16)

	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}

		if k := c.ScalarFromWideBytes(b); !k.IsZero() {
			return k, nil
		}
	}
}

// Add returns s + o mod N.
func (s *Scalar) Add(o *Scalar) *Scalar {
	return &Scalar{s: s.s.Clone().Add(s.s, o.s)}
}

// Sub returns s - o mod N.
func (s *Scalar) Sub(o *Scalar) *Scalar {
	return &Scalar{s: s.s.Clone().Sub(s.s, o.s)}
}

// Mul returns s · o mod N.
func (s *Scalar) Mul(o *Scalar) *Scalar {
	return &Scalar{s: s.s.Clone().Mul(s.s, o.s)}
}

// Negate returns -s mod N.
func (s *Scalar) Negate() *Scalar {
	return &Scalar{s: s.s.Clone().Neg(s.s)}
}

// Invert returns s⁻¹ mod N. The inverse of zero is zero.
func (s *Scalar) Invert() *Scalar {
	if s.IsZero() {
		return s
	}

	return &Scalar{s: s.s.Clone().Inv(s.s)}
}

// IsZero returns true if s is zero.
func (s *Scalar) IsZero() bool {
	return s.s.Equal(s.s.Clone().Zero())
}

// Equal returns true if s and o are equal, in constant time.
func (s *Scalar) Equal(o *Scalar) bool {
	return subtle.ConstantTimeCompare(s.Bytes(), o.Bytes()) == 1
}

// Bytes returns the fixed-width big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	return scalarBytes(s.s)
}

func scalarBytes(k kyber.Scalar) []byte {
	b, err := k.MarshalBinary()
	if err != nil {
		panic(err)
	}

	return b
}
