package phe

import (
	"encoding"
	"fmt"
	"io"

	"github.com/codahale/phe/pkg/phe/internal/curve"
	"github.com/codahale/phe/pkg/phe/internal/der"
	"github.com/codahale/phe/pkg/phe/internal/rng"
	"golang.org/x/xerrors"
)

// ServerKeyPair is a PHE server's secret scalar x and its public commitment X = xG.
//
// It should never be serialized in plaintext outside of the server's key storage.
type ServerKeyPair struct {
	suite *Suite
	x     *curve.Scalar
	pub   *curve.Point
}

// GenerateServerKeyPair returns a new random server key pair. If r is nil, the default hedged
// random source is used.
func (s *Suite) GenerateServerKeyPair(r io.Reader) (*ServerKeyPair, error) {
	x, err := s.randomScalar(r)
	if err != nil {
		return nil, err
	}

	return &ServerKeyPair{suite: s, x: x, pub: s.g.ScalarBaseMult(x)}, nil
}

// Suite returns the key pair's suite.
func (kp *ServerKeyPair) Suite() *Suite {
	return kp.suite
}

// PublicKey returns the key pair's public key.
func (kp *ServerKeyPair) PublicKey() *ServerPublicKey {
	return &ServerPublicKey{suite: kp.suite, pub: kp.pub}
}

// MarshalBinary encodes the key pair as a framed record of the suite name, x, and X.
func (kp *ServerKeyPair) MarshalBinary() ([]byte, error) {
	return der.Encode([]byte(kp.suite.Name()), kp.x.Bytes(), kp.pub.Bytes())
}

// UnmarshalBinary decodes the results of MarshalBinary. The public key must match the secret
// scalar.
func (kp *ServerKeyPair) UnmarshalBinary(data []byte) error {
	parts, err := der.DecodeN(data, 3)
	if err != nil {
		return xerrors.Errorf("invalid server key pair: %w", err)
	}

	s, err := suiteByName(parts[0])
	if err != nil {
		return xerrors.Errorf("invalid server key pair: %w", err)
	}

	x, err := s.decodeSecret(parts[1])
	if err != nil {
		return xerrors.Errorf("invalid server key pair: %w", err)
	}

	pub, err := s.g.DecodePoint(parts[2])
	if err != nil {
		return xerrors.Errorf("invalid server key pair: %w", err)
	}

	if !s.g.ScalarBaseMult(x).Equal(pub) {
		return xerrors.Errorf("invalid server key pair: %w", ErrInvalidPoint)
	}

	kp.suite, kp.x, kp.pub = s, x, pub

	return nil
}

// MarshalText encodes the key pair as base58 text.
func (kp *ServerKeyPair) MarshalText() ([]byte, error) {
	return marshalText(kp)
}

// UnmarshalText decodes the results of MarshalText.
func (kp *ServerKeyPair) UnmarshalText(text []byte) error {
	return unmarshalText(kp, text)
}

// ServerPublicKey is a PHE server's public commitment X = xG. Clients use it to verify the server's
// proofs.
//
// It can be marshalled and unmarshalled as a base58 string for human consumption.
type ServerPublicKey struct {
	suite *Suite
	pub   *curve.Point
}

// Suite returns the public key's suite.
func (pk *ServerPublicKey) Suite() *Suite {
	return pk.suite
}

// Equal returns true if the two public keys are the same.
func (pk *ServerPublicKey) Equal(o *ServerPublicKey) bool {
	return pk.suite.Name() == o.suite.Name() && pk.pub.Equal(o.pub)
}

// String returns the public key as base58 text.
func (pk *ServerPublicKey) String() string {
	text, err := pk.MarshalText()
	if err != nil {
		panic(err)
	}

	return string(text)
}

// MarshalBinary encodes the public key as a framed record of the suite name and X.
func (pk *ServerPublicKey) MarshalBinary() ([]byte, error) {
	return der.Encode([]byte(pk.suite.Name()), pk.pub.Bytes())
}

// UnmarshalBinary decodes the results of MarshalBinary.
func (pk *ServerPublicKey) UnmarshalBinary(data []byte) error {
	parts, err := der.DecodeN(data, 2)
	if err != nil {
		return xerrors.Errorf("invalid public key: %w", err)
	}

	s, err := suiteByName(parts[0])
	if err != nil {
		return xerrors.Errorf("invalid public key: %w", err)
	}

	pub, err := s.g.DecodePoint(parts[1])
	if err != nil {
		return xerrors.Errorf("invalid public key: %w", err)
	}

	pk.suite, pk.pub = s, pub

	return nil
}

// MarshalText encodes the public key as base58 text.
func (pk *ServerPublicKey) MarshalText() ([]byte, error) {
	return marshalText(pk)
}

// UnmarshalText decodes the results of MarshalText.
func (pk *ServerPublicKey) UnmarshalText(text []byte) error {
	return unmarshalText(pk, text)
}

// ClientKey is a PHE client's secret scalar y. It blinds every enrollment record the client
// stores.
type ClientKey struct {
	suite *Suite
	y     *curve.Scalar
}

// GenerateClientKey returns a new random client key. If r is nil, the default hedged random source
// is used.
func (s *Suite) GenerateClientKey(r io.Reader) (*ClientKey, error) {
	y, err := s.randomScalar(r)
	if err != nil {
		return nil, err
	}

	return &ClientKey{suite: s, y: y}, nil
}

// Suite returns the key's suite.
func (ck *ClientKey) Suite() *Suite {
	return ck.suite
}

// MarshalBinary encodes the key as a framed record of the suite name and y.
func (ck *ClientKey) MarshalBinary() ([]byte, error) {
	return der.Encode([]byte(ck.suite.Name()), ck.y.Bytes())
}

// UnmarshalBinary decodes the results of MarshalBinary.
func (ck *ClientKey) UnmarshalBinary(data []byte) error {
	parts, err := der.DecodeN(data, 2)
	if err != nil {
		return xerrors.Errorf("invalid client key: %w", err)
	}

	s, err := suiteByName(parts[0])
	if err != nil {
		return xerrors.Errorf("invalid client key: %w", err)
	}

	y, err := s.decodeSecret(parts[1])
	if err != nil {
		return xerrors.Errorf("invalid client key: %w", err)
	}

	ck.suite, ck.y = s, y

	return nil
}

// MarshalText encodes the key as base58 text.
func (ck *ClientKey) MarshalText() ([]byte, error) {
	return marshalText(ck)
}

// UnmarshalText decodes the results of MarshalText.
func (ck *ClientKey) UnmarshalText(text []byte) error {
	return unmarshalText(ck, text)
}

func (s *Suite) randomScalar(r io.Reader) (*curve.Scalar, error) {
	if r == nil {
		r = rng.Reader
	}

	k, err := s.g.RandomScalar(r)
	if err != nil {
		return nil, xerrors.Errorf("generate key: %w", err)
	}

	return k, nil
}

// decodeSecret decodes a secret scalar, which must be non-zero.
func (s *Suite) decodeSecret(b []byte) (*curve.Scalar, error) {
	k, err := s.g.NewScalar(b)
	if err != nil {
		return nil, err
	}

	if k.IsZero() {
		return nil, ErrInvalidScalar
	}

	return k, nil
}

var (
	_ encoding.BinaryMarshaler   = &ServerKeyPair{}
	_ encoding.BinaryUnmarshaler = &ServerKeyPair{}
	_ encoding.TextMarshaler     = &ServerKeyPair{}
	_ encoding.TextUnmarshaler   = &ServerKeyPair{}
	_ encoding.BinaryMarshaler   = &ServerPublicKey{}
	_ encoding.BinaryUnmarshaler = &ServerPublicKey{}
	_ encoding.TextMarshaler     = &ServerPublicKey{}
	_ encoding.TextUnmarshaler   = &ServerPublicKey{}
	_ fmt.Stringer               = &ServerPublicKey{}
	_ encoding.BinaryMarshaler   = &ClientKey{}
	_ encoding.BinaryUnmarshaler = &ClientKey{}
	_ encoding.TextMarshaler     = &ClientKey{}
	_ encoding.TextUnmarshaler   = &ClientKey{}
)
