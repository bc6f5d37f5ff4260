package phe

import (
	"crypto/sha512"
	"io"

	"github.com/codahale/phe/pkg/phe/internal"
	"github.com/codahale/phe/pkg/phe/internal/curve"
	"github.com/codahale/phe/pkg/phe/internal/oprf"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/xerrors"
)

// Client is the PHE client. It holds the client key and the server's public key, creates
// enrollment records, and recovers record keys. It is safe for concurrent use if its random source
// is.
type Client struct {
	suite     *Suite
	key       *ClientKey
	serverKey *ServerPublicKey
	eval      *oprf.Evaluator
	rand      io.Reader
	log       zerolog.Logger
}

// NewClient returns a Client for the given client key and server public key, which must share a
// suite.
func NewClient(key *ClientKey, serverKey *ServerPublicKey, opts ...Option) (*Client, error) {
	if err := key.suite.checkSuite(serverKey.suite); err != nil {
		return nil, err
	}

	o := newOptions(opts)

	return &Client{
		suite:     key.suite,
		key:       key,
		serverKey: serverKey,
		eval:      oprf.New(key.suite.g, o.rand),
		rand:      o.rand,
		log:       o.log.With().Str("suite", key.suite.Name()).Logger(),
	}, nil
}

// EnrollAccount verifies a server's enrollment response and binds it to the given password,
// returning the enrollment record to store and the record key.
func (c *Client) EnrollAccount(password []byte, resp *EnrollmentResponse) (*EnrollmentRecord, []byte, error) {
	if len(resp.NS) != internal.NonceSize {
		return nil, nil, xerrors.Errorf("invalid enrollment response: %w",
			&FormatError{Offset: 0, Reason: "invalid server nonce length"})
	}

	c0, err := c.suite.g.DecodePoint(resp.C0)
	if err != nil {
		return nil, nil, xerrors.Errorf("invalid enrollment response: %w", err)
	}

	c1, err := c.suite.g.DecodePoint(resp.C1)
	if err != nil {
		return nil, nil, xerrors.Errorf("invalid enrollment response: %w", err)
	}

	// Check that both points were evaluated with the server's key.
	if err := c.verify(resp.NS, c0, c1, resp.Proof); err != nil {
		return nil, nil, err
	}

	// Generate a random client nonce and a random point M.
	buf := make([]byte, internal.NonceSize*2)
	if _, err := io.ReadFull(c.rand, buf); err != nil {
		return nil, nil, xerrors.Errorf("client nonce: %w", err)
	}

	nc := buf[:internal.NonceSize]
	m := c.suite.hashToPoint(internal.DomainM, buf[internal.NonceSize:])

	// Blind the server's evaluations with the password-derived points and M.
	hc0, hc1 := c.clientPoints(nc, password)

	// t0 = c0 + y·hc0
	t0, err := c.blind(c0, hc0)
	if err != nil {
		return nil, nil, err
	}

	// t1 = c1 + y·hc1 + y·M
	t1, err := c.blind(c1, hc1)
	if err != nil {
		return nil, nil, err
	}

	if t1, err = c.blind(t1, m); err != nil {
		return nil, nil, err
	}

	key, err := deriveKey(m)
	if err != nil {
		return nil, nil, err
	}

	c.log.Debug().Msg("account enrolled")

	return &EnrollmentRecord{NS: resp.NS, NC: nc, T0: t0.Bytes(), T1: t1.Bytes()}, key, nil
}

// CreateVerifyPasswordRequest strips the given password's component from an enrollment record.
func (c *Client) CreateVerifyPasswordRequest(password []byte, rec *EnrollmentRecord) (*VerifyPasswordRequest, error) {
	t0, _, err := c.decodeRecord(rec)
	if err != nil {
		return nil, err
	}

	hc0, _ := c.clientPoints(rec.NC, password)

	// c0 = t0 - y·hc0
	c0, err := c.unblind(t0, hc0)
	if err != nil {
		return nil, err
	}

	return &VerifyPasswordRequest{NS: rec.NS, C0: c0.Bytes()}, nil
}

// CheckResponseAndDecrypt verifies a server's response to a VerifyPasswordRequest and, if the
// password was correct, recovers the record key. A failed response returns ErrInvalidPassword; a
// response without a valid proof returns ErrInvalidProof.
func (c *Client) CheckResponseAndDecrypt(
	password []byte, rec *EnrollmentRecord, resp *VerifyPasswordResponse,
) ([]byte, error) {
	if !resp.Success {
		c.log.Debug().Msg("password rejected")

		return nil, ErrInvalidPassword
	}

	t0, t1, err := c.decodeRecord(rec)
	if err != nil {
		return nil, err
	}

	c1, err := c.suite.g.DecodePoint(resp.C1)
	if err != nil {
		return nil, xerrors.Errorf("invalid verify password response: %w", err)
	}

	// Recompute c0 and check both evaluations against the server's key.
	hc0, hc1 := c.clientPoints(rec.NC, password)

	c0, err := c.unblind(t0, hc0)
	if err != nil {
		return nil, err
	}

	if err := c.verify(rec.NS, c0, c1, resp.Proof); err != nil {
		return nil, err
	}

	// M = y⁻¹·(t1 - c1 - y·hc1)
	m, err := c.recoverM(t1, c1, hc1)
	if err != nil {
		return nil, err
	}

	return deriveKey(m)
}

func (c *Client) verify(ns []byte, c0, c1 *curve.Point, proofBytes []byte) error {
	proof, err := oprf.UnmarshalProof(c.suite.g, proofBytes)
	if err != nil {
		return xerrors.Errorf("malformed proof (%v): %w", err, ErrInvalidProof)
	}

	hs0 := c.suite.hashToPoint(internal.DomainHS0, ns)
	hs1 := c.suite.hashToPoint(internal.DomainHS1, ns)

	if !c.eval.VerifyBatch([]*curve.Point{hs0, hs1}, []*curve.Point{c0, c1}, c.serverKey.pub, proof) {
		c.log.Debug().Msg("proof rejected")

		return ErrInvalidProof
	}

	return nil
}

func (c *Client) decodeRecord(rec *EnrollmentRecord) (t0, t1 *curve.Point, err error) {
	if len(rec.NS) != internal.NonceSize || len(rec.NC) != internal.NonceSize {
		return nil, nil, xerrors.Errorf("invalid enrollment record: %w",
			&FormatError{Offset: 0, Reason: "invalid nonce length"})
	}

	if t0, err = c.suite.g.DecodePoint(rec.T0); err != nil {
		return nil, nil, xerrors.Errorf("invalid enrollment record: %w", err)
	}

	if t1, err = c.suite.g.DecodePoint(rec.T1); err != nil {
		return nil, nil, xerrors.Errorf("invalid enrollment record: %w", err)
	}

	return t0, t1, nil
}

func (c *Client) clientPoints(nc, password []byte) (hc0, hc1 *curve.Point) {
	return c.suite.hashToPoint(internal.DomainHC0, nc, password),
		c.suite.hashToPoint(internal.DomainHC1, nc, password)
}

// blind returns p + y·h.
func (c *Client) blind(p, h *curve.Point) (*curve.Point, error) {
	yh, err := c.suite.g.ScalarMult(h, c.key.y)
	if err != nil {
		return nil, err
	}

	return c.suite.g.Add(p, yh)
}

// unblind returns p - y·h.
func (c *Client) unblind(p, h *curve.Point) (*curve.Point, error) {
	yh, err := c.suite.g.ScalarMult(h, c.key.y)
	if err != nil {
		return nil, err
	}

	nyh, err := c.suite.g.Negate(yh)
	if err != nil {
		return nil, err
	}

	return c.suite.g.Add(p, nyh)
}

func (c *Client) recoverM(t1, c1, hc1 *curve.Point) (*curve.Point, error) {
	nc1, err := c.suite.g.Negate(c1)
	if err != nil {
		return nil, err
	}

	m, err := c.suite.g.Add(t1, nc1)
	if err != nil {
		return nil, err
	}

	if m, err = c.unblind(m, hc1); err != nil {
		return nil, err
	}

	return c.suite.g.ScalarMult(m, c.key.y.Invert())
}

// deriveKey derives the record key from M with HKDF-SHA-512.
func deriveKey(m *curve.Point) ([]byte, error) {
	key := make([]byte, internal.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha512.New, m.Bytes(), nil, []byte(internal.DomainKey)), key); err != nil {
		return nil, xerrors.Errorf("derive key: %w", err)
	}

	return key, nil
}
