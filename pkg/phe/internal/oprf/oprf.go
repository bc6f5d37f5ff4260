// Package oprf provides the oblivious evaluation at the heart of PHE and the Chaum-Pedersen proof
// that an evaluation used the server's secret.
//
// An evaluation multiplies a hashed point I by a secret scalar x, producing O = xI. The evaluator
// proves, without revealing x, that log_G(X) = log_I(O) for the public commitment X = xG. The same
// proof covers any number of (I_k, O_k) pairs which share the secret.
//
// Proving is as follows, given pairs (I_0, O_0)...(I_n, O_n), a secret scalar x, and its
// commitment X:
//
//     INIT('phe.dleq', level=256)
//     AD(curve name)
//     AD(G)
//     AD(X)
//     AD(n)
//     AD(I_0) AD(O_0) ... AD(I_n) AD(O_n)
//
// The transcript is cloned and the clone is used to derive a hedged blinding scalar r from the
// public transcript, the secret scalar, and 64 bytes from a random source:
//
//     KEY(x)
//     KEY(rand(64))
//     PRF(N+16) -> r
//
// The clone is then discarded and the commitments to r are added to the parent transcript:
//
//     A = rG
//     B_k = rI_k
//     AD(A) AD(B_0) ... AD(B_n)
//     PRF(N+16) -> c
//     s = r + cx
//
// The proof consists of the two scalars, c and s. To verify, the verifier rebuilds the public
// transcript, recalculates A' = sG - cX and B'_k = sI_k - cO_k, derives c', and compares c' == c in
// constant time.
//
// See https://link.springer.com/chapter/10.1007/3-540-48071-4_7
package oprf

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/codahale/phe/pkg/phe/internal/curve"
	"github.com/codahale/phe/pkg/phe/internal/der"
	"github.com/codahale/phe/pkg/phe/internal/transcript"
	"golang.org/x/xerrors"
)

const (
	protocolName = "phe.dleq"
	nonceEntropy = 64
)

// ErrMismatchedPairs is returned when a batch has no pairs or a different number of inputs and
// outputs.
var ErrMismatchedPairs = xerrors.New("mismatched inputs and outputs")

// Proof is a non-interactive proof that a set of evaluations used the secret behind a commitment.
type Proof struct {
	C *curve.Scalar // challenge
	S *curve.Scalar // response
}

// MarshalBinary encodes the proof as a framed record of its challenge and response.
func (p *Proof) MarshalBinary() ([]byte, error) {
	return der.Encode(p.C.Bytes(), p.S.Bytes())
}

// UnmarshalProof decodes a proof for the given group.
func UnmarshalProof(g curve.Group, data []byte) (*Proof, error) {
	parts, err := der.DecodeSized(data, g.ScalarSize(), g.ScalarSize())
	if err != nil {
		return nil, xerrors.Errorf("proof: %w", err)
	}

	c, err := g.NewScalar(parts[0])
	if err != nil {
		return nil, xerrors.Errorf("proof challenge: %w", err)
	}

	s, err := g.NewScalar(parts[1])
	if err != nil {
		return nil, xerrors.Errorf("proof response: %w", err)
	}

	return &Proof{C: c, S: s}, nil
}

// Evaluator evaluates points with a secret scalar and proves it did so. It is safe for concurrent
// use if its random source is.
type Evaluator struct {
	g    curve.Group
	rand io.Reader
}

// New returns an Evaluator for the given group which draws blinding entropy from rand. If rand is
// nil, crypto/rand is used.
func New(g curve.Group, r io.Reader) *Evaluator {
	if r == nil {
		r = rand.Reader
	}

	return &Evaluator{g: g, rand: r}
}

// Group returns the evaluator's group.
func (e *Evaluator) Group() curve.Group {
	return e.g
}

// Evaluate returns secret·input. Points from another group return curve.ErrInvalidPoint.
func (e *Evaluator) Evaluate(input *curve.Point, secret *curve.Scalar) (*curve.Point, error) {
	return e.g.ScalarMult(input, secret)
}

// Prove returns a proof that output = secret·input and commitment = secret·G.
func (e *Evaluator) Prove(input, output *curve.Point, secret *curve.Scalar, commitment *curve.Point) (*Proof, error) {
	return e.ProveBatch([]*curve.Point{input}, []*curve.Point{output}, secret, commitment)
}

// ProveBatch returns a single proof that outputs[k] = secret·inputs[k] for every k and
// commitment = secret·G.
func (e *Evaluator) ProveBatch(
	inputs, outputs []*curve.Point, secret *curve.Scalar, commitment *curve.Point,
) (*Proof, error) {
	if len(inputs) == 0 || len(inputs) != len(outputs) {
		return nil, ErrMismatchedPairs
	}

	// Initialize the transcript with the public values.
	t := e.transcript(commitment, inputs, outputs)

	// Clone the transcript and key it with the secret and fresh randomness.
	clone := t.Clone()
	clone.KEY(secret.Bytes())

	if err := clone.KEYRand(e.rand, nonceEntropy); err != nil {
		return nil, xerrors.Errorf("blinding: %w", err)
	}

	// Derive the blinding scalar from the clone and discard it.
	r := clone.PRFScalar("blinding", e.g)

	// Commit to the blinding scalar.
	t.AppendPoint("commitment-g", e.g.ScalarBaseMult(r))

	for _, in := range inputs {
		b, err := e.g.ScalarMult(in, r)
		if err != nil {
			return nil, err
		}

		t.AppendPoint("commitment-i", b)
	}

	// Extract the challenge scalar.
	c := t.PRFScalar("challenge", e.g)

	// Calculate the response scalar.
	s := c.Mul(secret).Add(r)

	return &Proof{C: c, S: s}, nil
}

// Verify returns true if the proof shows output = x·input for the x behind commitment = x·G.
func (e *Evaluator) Verify(input, output, commitment *curve.Point, proof *Proof) bool {
	return e.VerifyBatch([]*curve.Point{input}, []*curve.Point{output}, commitment, proof)
}

// VerifyBatch returns true if the proof shows outputs[k] = x·inputs[k] for every k and the x behind
// commitment = x·G. Invalid points and malformed batches are reported as false.
func (e *Evaluator) VerifyBatch(inputs, outputs []*curve.Point, commitment *curve.Point, proof *Proof) bool {
	if proof == nil || proof.C == nil || proof.S == nil {
		return false
	}

	if len(inputs) == 0 || len(inputs) != len(outputs) || !e.g.IsOnCurve(commitment) {
		return false
	}

	for i := range inputs {
		if !e.g.IsOnCurve(inputs[i]) || !e.g.IsOnCurve(outputs[i]) {
			return false
		}
	}

	// Rebuild the transcript with the public values.
	t := e.transcript(commitment, inputs, outputs)

	// Recalculate the commitments to the blinding scalar.
	nc := proof.C.Negate()

	a, err := e.recommit(e.g.Generator(), commitment, proof.S, nc)
	if err != nil {
		return false
	}

	t.AppendPoint("commitment-g", a)

	for i, in := range inputs {
		b, err := e.recommit(in, outputs[i], proof.S, nc)
		if err != nil {
			return false
		}

		t.AppendPoint("commitment-i", b)
	}

	// Compare the extracted challenge scalar to the received challenge scalar.
	return t.PRFScalar("challenge", e.g).Equal(proof.C)
}

// recommit returns s·p - c·q, given nc = -c.
func (e *Evaluator) recommit(p, q *curve.Point, s, nc *curve.Scalar) (*curve.Point, error) {
	sp, err := e.g.ScalarMult(p, s)
	if err != nil {
		return nil, err
	}

	cq, err := e.g.ScalarMult(q, nc)
	if err != nil {
		return nil, err
	}

	return e.g.Add(sp, cq)
}

func (e *Evaluator) transcript(commitment *curve.Point, inputs, outputs []*curve.Point) *transcript.Transcript {
	var n [4]byte

	binary.LittleEndian.PutUint32(n[:], uint32(len(inputs)))

	t := transcript.New(protocolName)
	t.Append("curve", []byte(e.g.Params().Name))
	t.AppendPoint("generator", e.g.Generator())
	t.AppendPoint("public-key", commitment)
	t.Append("pairs", n[:])

	for i := range inputs {
		t.AppendPoint("input", inputs[i])
		t.AppendPoint("output", outputs[i])
	}

	return t
}
