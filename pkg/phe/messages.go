package phe

import (
	"encoding"
	"fmt"

	"github.com/codahale/phe/pkg/phe/internal"
	"github.com/codahale/phe/pkg/phe/internal/der"
	"golang.org/x/xerrors"
)

// EnrollmentResponse is a server's reply to an enrollment request: a fresh server nonce, the two
// evaluated points, and a proof that they were evaluated with the server's key.
type EnrollmentResponse struct {
	NS    []byte // server nonce
	C0    []byte // x·hs0
	C1    []byte // x·hs1
	Proof []byte
}

// MarshalBinary encodes the response as a framed record.
func (r *EnrollmentResponse) MarshalBinary() ([]byte, error) {
	return der.Encode(r.NS, r.C0, r.C1, r.Proof)
}

// UnmarshalBinary decodes the results of MarshalBinary.
func (r *EnrollmentResponse) UnmarshalBinary(data []byte) error {
	parts, err := decodeMessage(data, partNonce, partPoint, partPoint, partProof)
	if err != nil {
		return xerrors.Errorf("invalid enrollment response: %w", err)
	}

	r.NS, r.C0, r.C1, r.Proof = parts[0], parts[1], parts[2], parts[3]

	return nil
}

// MarshalText encodes the response as base58 text.
func (r *EnrollmentResponse) MarshalText() ([]byte, error) {
	return marshalText(r)
}

// UnmarshalText decodes the results of MarshalText.
func (r *EnrollmentResponse) UnmarshalText(text []byte) error {
	return unmarshalText(r, text)
}

// EnrollmentRecord is what a client stores for an account. Without both the client key and the
// server's cooperation it reveals nothing about the password.
type EnrollmentRecord struct {
	NS []byte // server nonce
	NC []byte // client nonce
	T0 []byte // c0 + y·hc0
	T1 []byte // c1 + y·hc1 + y·M
}

// MarshalBinary encodes the record as a framed record.
func (r *EnrollmentRecord) MarshalBinary() ([]byte, error) {
	return der.Encode(r.NS, r.NC, r.T0, r.T1)
}

// UnmarshalBinary decodes the results of MarshalBinary.
func (r *EnrollmentRecord) UnmarshalBinary(data []byte) error {
	parts, err := decodeMessage(data, partNonce, partNonce, partPoint, partPoint)
	if err != nil {
		return xerrors.Errorf("invalid enrollment record: %w", err)
	}

	r.NS, r.NC, r.T0, r.T1 = parts[0], parts[1], parts[2], parts[3]

	return nil
}

// MarshalText encodes the record as base58 text.
func (r *EnrollmentRecord) MarshalText() ([]byte, error) {
	return marshalText(r)
}

// UnmarshalText decodes the results of MarshalText.
func (r *EnrollmentRecord) UnmarshalText(text []byte) error {
	return unmarshalText(r, text)
}

// VerifyPasswordRequest asks a server whether the password-stripped record component matches its
// key.
type VerifyPasswordRequest struct {
	NS []byte // server nonce
	C0 []byte // t0 - y·hc0
}

// MarshalBinary encodes the request as a framed record.
func (r *VerifyPasswordRequest) MarshalBinary() ([]byte, error) {
	return der.Encode(r.NS, r.C0)
}

// UnmarshalBinary decodes the results of MarshalBinary.
func (r *VerifyPasswordRequest) UnmarshalBinary(data []byte) error {
	parts, err := decodeMessage(data, partNonce, partPoint)
	if err != nil {
		return xerrors.Errorf("invalid verify password request: %w", err)
	}

	r.NS, r.C0 = parts[0], parts[1]

	return nil
}

// MarshalText encodes the request as base58 text.
func (r *VerifyPasswordRequest) MarshalText() ([]byte, error) {
	return marshalText(r)
}

// UnmarshalText decodes the results of MarshalText.
func (r *VerifyPasswordRequest) UnmarshalText(text []byte) error {
	return unmarshalText(r, text)
}

// VerifyPasswordResponse is a server's reply to a VerifyPasswordRequest. A successful response
// carries x·hs1 and a proof; a failed one carries nothing else.
type VerifyPasswordResponse struct {
	Success bool
	C1      []byte // x·hs1
	Proof   []byte
}

// MarshalBinary encodes the response as a framed record whose first part is a one-byte flag.
func (r *VerifyPasswordResponse) MarshalBinary() ([]byte, error) {
	if !r.Success {
		return der.Encode([]byte{0})
	}

	return der.Encode([]byte{1}, r.C1, r.Proof)
}

// UnmarshalBinary decodes the results of MarshalBinary.
func (r *VerifyPasswordResponse) UnmarshalBinary(data []byte) error {
	parts, err := der.Decode(data)
	if err != nil {
		return xerrors.Errorf("invalid verify password response: %w", err)
	}

	switch {
	case len(parts) == 0 || len(parts[0]) != 1 || parts[0][0] > 1:
		return xerrors.Errorf("invalid verify password response: %w",
			&FormatError{Offset: der.PartOffset(data, 0), Reason: "malformed success flag"})
	case parts[0][0] == 0:
		if len(parts) != 1 {
			return xerrors.Errorf("invalid verify password response: %w",
				&FormatError{Offset: der.PartOffset(data, 1), Reason: "unexpected parts after failure flag"})
		}

		r.Success, r.C1, r.Proof = false, nil, nil
	default:
		if parts, err = decodeMessage(data, partFlag, partPoint, partProof); err != nil {
			return xerrors.Errorf("invalid verify password response: %w", err)
		}

		r.Success, r.C1, r.Proof = true, parts[1], parts[2]
	}

	return nil
}

type partKind int

const (
	partFlag partKind = iota
	partNonce
	partPoint
	partProof
)

// decodeMessage decodes a record whose parts have exactly the sizes of the given kinds. The first
// point's size selects the suite the remaining sizes are checked against. Whether the points belong
// to the suite in use is checked when they are decoded as points.
func decodeMessage(data []byte, kinds ...partKind) ([][]byte, error) {
	parts, err := der.DecodeN(data, len(kinds))
	if err != nil {
		return nil, err
	}

	var s *Suite

	for i, k := range kinds {
		want := -1

		switch k {
		case partFlag:
			want = 1
		case partNonce:
			want = internal.NonceSize
		case partPoint:
			if s == nil {
				s = suiteByPointSize(len(parts[i]))
			}

			if s != nil {
				want = s.g.PointSize()
			}
		case partProof:
			if s != nil {
				want = s.proofSize()
			}
		}

		if len(parts[i]) != want {
			return nil, &FormatError{
				Offset: der.PartOffset(data, i),
				Reason: fmt.Sprintf("part %d has unexpected size %d", i, len(parts[i])),
			}
		}
	}

	return parts, nil
}

func suiteByPointSize(n int) *Suite {
	for _, s := range []*Suite{p256, p384, p521} {
		if s.g.PointSize() == n {
			return s
		}
	}

	return nil
}

// proofSize is the length of a framed proof of two scalars.
func (s *Suite) proofSize() int {
	b, err := der.Encode(make([]byte, s.g.ScalarSize()), make([]byte, s.g.ScalarSize()))
	internal.Must(err)

	return len(b)
}

// MarshalText encodes the response as base58 text.
func (r *VerifyPasswordResponse) MarshalText() ([]byte, error) {
	return marshalText(r)
}

// UnmarshalText decodes the results of MarshalText.
func (r *VerifyPasswordResponse) UnmarshalText(text []byte) error {
	return unmarshalText(r, text)
}

func marshalText(m encoding.BinaryMarshaler) ([]byte, error) {
	b, err := m.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return internal.ASCIIEncode(b), nil
}

func unmarshalText(u encoding.BinaryUnmarshaler, text []byte) error {
	b, err := internal.ASCIIDecode(text)
	if err != nil {
		return xerrors.Errorf("invalid base58: %w", err)
	}

	return u.UnmarshalBinary(b)
}

var (
	_ encoding.BinaryMarshaler   = &EnrollmentResponse{}
	_ encoding.BinaryUnmarshaler = &EnrollmentResponse{}
	_ encoding.TextMarshaler     = &EnrollmentResponse{}
	_ encoding.TextUnmarshaler   = &EnrollmentResponse{}
	_ encoding.BinaryMarshaler   = &EnrollmentRecord{}
	_ encoding.BinaryUnmarshaler = &EnrollmentRecord{}
	_ encoding.TextMarshaler     = &EnrollmentRecord{}
	_ encoding.TextUnmarshaler   = &EnrollmentRecord{}
	_ encoding.BinaryMarshaler   = &VerifyPasswordRequest{}
	_ encoding.BinaryUnmarshaler = &VerifyPasswordRequest{}
	_ encoding.TextMarshaler     = &VerifyPasswordRequest{}
	_ encoding.TextUnmarshaler   = &VerifyPasswordRequest{}
	_ encoding.BinaryMarshaler   = &VerifyPasswordResponse{}
	_ encoding.BinaryUnmarshaler = &VerifyPasswordResponse{}
	_ encoding.TextMarshaler     = &VerifyPasswordResponse{}
	_ encoding.TextUnmarshaler   = &VerifyPasswordResponse{}
)
