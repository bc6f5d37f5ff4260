package phe

import (
	"io"

	"github.com/codahale/phe/pkg/phe/internal"
	"github.com/codahale/phe/pkg/phe/internal/curve"
	"github.com/codahale/phe/pkg/phe/internal/oprf"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Server is the PHE server. It holds the server key pair and answers enrollment and verification
// requests. It is safe for concurrent use if its random source is.
type Server struct {
	kp   *ServerKeyPair
	eval *oprf.Evaluator
	rand io.Reader
	log  zerolog.Logger
}

// NewServer returns a Server for the given key pair.
func NewServer(kp *ServerKeyPair, opts ...Option) *Server {
	o := newOptions(opts)

	return &Server{
		kp:   kp,
		eval: oprf.New(kp.suite.g, o.rand),
		rand: o.rand,
		log:  o.log.With().Str("suite", kp.suite.Name()).Logger(),
	}
}

// PublicKey returns the server's public key.
func (s *Server) PublicKey() *ServerPublicKey {
	return s.kp.PublicKey()
}

// GetEnrollment returns a fresh enrollment response: a random server nonce ns, the evaluations
// c0 = x·hs0 and c1 = x·hs1 of the points derived from it, and a proof of both evaluations.
func (s *Server) GetEnrollment() (*EnrollmentResponse, error) {
	// Generate a random server nonce.
	ns := make([]byte, internal.NonceSize)
	if _, err := io.ReadFull(s.rand, ns); err != nil {
		return nil, xerrors.Errorf("server nonce: %w", err)
	}

	// Derive and evaluate hs0 and hs1.
	hs0, hs1 := s.serverPoints(ns)

	c0, err := s.eval.Evaluate(hs0, s.kp.x)
	if err != nil {
		return nil, err
	}

	c1, err := s.eval.Evaluate(hs1, s.kp.x)
	if err != nil {
		return nil, err
	}

	// Prove both evaluations.
	proof, err := s.prove(hs0, hs1, c0, c1)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Msg("enrollment issued")

	return &EnrollmentResponse{NS: ns, C0: c0.Bytes(), C1: c1.Bytes(), Proof: proof}, nil
}

// VerifyPassword checks a client's password-stripped record component c0 against x·hs0. If they
// match, the response carries c1 = x·hs1 and a proof of both evaluations. If they don't, the
// response is a bare failure.
//
// Malformed requests return an error rather than a failed response.
func (s *Server) VerifyPassword(req *VerifyPasswordRequest) (*VerifyPasswordResponse, error) {
	if len(req.NS) != internal.NonceSize {
		return nil, xerrors.Errorf("invalid verify password request: %w",
			&FormatError{Offset: 0, Reason: "invalid server nonce length"})
	}

	c0, err := s.kp.suite.g.DecodePoint(req.C0)
	if err != nil {
		return nil, xerrors.Errorf("invalid verify password request: %w", err)
	}

	// Re-derive hs0 and check the client's c0 against it.
	hs0, hs1 := s.serverPoints(req.NS)

	want, err := s.eval.Evaluate(hs0, s.kp.x)
	if err != nil {
		return nil, err
	}

	if !want.Equal(c0) {
		s.log.Debug().Msg("password mismatch")

		return &VerifyPasswordResponse{Success: false}, nil
	}

	// Release c1 with a proof of both evaluations.
	c1, err := s.eval.Evaluate(hs1, s.kp.x)
	if err != nil {
		return nil, err
	}

	proof, err := s.prove(hs0, hs1, c0, c1)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Msg("password verified")

	return &VerifyPasswordResponse{Success: true, C1: c1.Bytes(), Proof: proof}, nil
}

func (s *Server) serverPoints(ns []byte) (hs0, hs1 *curve.Point) {
	return s.kp.suite.hashToPoint(internal.DomainHS0, ns), s.kp.suite.hashToPoint(internal.DomainHS1, ns)
}

func (s *Server) prove(hs0, hs1, c0, c1 *curve.Point) ([]byte, error) {
	proof, err := s.eval.ProveBatch([]*curve.Point{hs0, hs1}, []*curve.Point{c0, c1}, s.kp.x, s.kp.pub)
	if err != nil {
		return nil, xerrors.Errorf("prove: %w", err)
	}

	return proof.MarshalBinary()
}
