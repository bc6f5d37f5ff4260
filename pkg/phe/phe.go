// Package phe implements password-hardened encryption.
//
// A PHE server holds a secret scalar x and never sees passwords. A PHE client holds its own secret
// scalar y and never stores anything which allows a password to be checked offline. To enroll an
// account, the server evaluates two points derived from a fresh server nonce with x and proves it
// did so with the key behind its public commitment X = xG. The client folds in a password-derived
// pair of points and a random point M, stores the resulting record, and derives a record key from
// M. To verify a password, the client strips its password component from the record and the server
// checks the remainder against x. Only if the password is correct does the server release the value
// which lets the client recover M and the record key.
//
// Every point in the protocol is a NIST curve point produced either by the SWU hash-to-point map or
// by checked decoding, and every server response carries a Chaum-Pedersen proof which the client
// verifies before using it.
package phe

import (
	"math/big"

	"github.com/codahale/phe/pkg/phe/internal"
	"github.com/codahale/phe/pkg/phe/internal/curve"
	"github.com/codahale/phe/pkg/phe/internal/der"
	"github.com/codahale/phe/pkg/phe/internal/swu"
	"golang.org/x/xerrors"
)

var (
	// ErrInvalidPoint is returned when a point is not on the suite's curve or its encoding is
	// malformed.
	ErrInvalidPoint = curve.ErrInvalidPoint

	// ErrInvalidScalar is returned when a scalar encoding is malformed or out of range.
	ErrInvalidScalar = curve.ErrInvalidScalar

	// ErrInvalidProof is returned when a server's response does not carry a valid proof for the
	// server's public key.
	ErrInvalidProof = xerrors.New("invalid proof")

	// ErrInvalidPassword is returned when a password does not match an enrollment record.
	ErrInvalidPassword = xerrors.New("invalid password")

	// ErrSuiteMismatch is returned when keys or records from different suites are combined.
	ErrSuiteMismatch = xerrors.New("suite mismatch")
)

// FormatError reports a malformed framed record and the offset at which decoding failed.
type FormatError = der.FormatError

// Suite is a curve and the hash-to-point map over it. It is safe for concurrent use.
type Suite struct {
	g curve.Group
	m *swu.Mapper
}

//nolint:gochecknoglobals // immutable suites
var (
	p256 = mustSuite(curve.P256())
	p384 = mustSuite(curve.P384())
	p521 = mustSuite(curve.P521())
)

// P256 returns the NIST P-256 suite.
func P256() *Suite {
	return p256
}

// NewSuite returns the suite for the named curve ("P-256", "P-384" or "P-521").
func NewSuite(name string) (*Suite, error) {
	for _, s := range []*Suite{p256, p384, p521} {
		if s.Name() == name {
			return s, nil
		}
	}

	return nil, xerrors.Errorf("unknown suite %q", name)
}

func newSuite(g curve.Group) (*Suite, error) {
	m, err := swu.New(g)
	if err != nil {
		return nil, err
	}

	return &Suite{g: g, m: m}, nil
}

func mustSuite(g curve.Group) *Suite {
	s, err := newSuite(g)
	internal.Must(err)

	return s
}

// Name returns the name of the suite's curve.
func (s *Suite) Name() string {
	return s.g.Params().Name
}

// String returns the name of the suite's curve.
func (s *Suite) String() string {
	return s.Name()
}

// DataToPoint hashes data with SHA-512 and maps the truncated digest to a curve point, returning its
// affine coordinates.
func (s *Suite) DataToPoint(data []byte) (x, y *big.Int) {
	p := s.m.DataToPoint(data)

	return p.X(), p.Y()
}

// MapToPoint maps a digest of any length to a curve point, returning its affine coordinates.
func (s *Suite) MapToPoint(digest []byte) (x, y *big.Int) {
	p := s.m.MapToPoint(digest)

	return p.X(), p.Y()
}

// EncodeRecord frames the given parts, in order, as a DER SEQUENCE OF OCTET STRING.
func EncodeRecord(parts ...[]byte) ([]byte, error) {
	return der.Encode(parts...)
}

// DecodeRecord parses a framed record into its parts. Malformed records return a *FormatError.
func DecodeRecord(record []byte) ([][]byte, error) {
	return der.Decode(record)
}

// hashToPoint maps a domain label and an ordered list of inputs to a point. The inputs are framed
// before hashing so that no two distinct lists share an encoding.
func (s *Suite) hashToPoint(domain string, parts ...[]byte) *curve.Point {
	record, err := der.Encode(append([][]byte{[]byte(domain)}, parts...)...)
	internal.Must(err)

	return s.m.DataToPoint(record)
}

func (s *Suite) checkSuite(o *Suite) error {
	if s.Name() != o.Name() {
		return xerrors.Errorf("%s and %s: %w", s.Name(), o.Name(), ErrSuiteMismatch)
	}

	return nil
}

func suiteByName(name []byte) (*Suite, error) {
	s, err := NewSuite(string(name))
	if err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrSuiteMismatch)
	}

	return s, nil
}
