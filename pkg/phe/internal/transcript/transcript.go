// Package transcript provides the STROBE-based Fiat-Shamir transcripts used by PHE's proofs.
//
// Every message is absorbed with a length-prefixed label:
//
//     meta-AD(label || LE32(len(message)))
//     AD(message)
//
// Challenges are squeezed with PRF and reduced modulo the group order from ScalarSize+16 bytes, so
// the bias is negligible on every supported curve.
package transcript

import (
	"encoding/binary"
	"io"

	"github.com/codahale/phe/pkg/phe/internal"
	"github.com/codahale/phe/pkg/phe/internal/curve"
	"github.com/sammyne/strobe"
)

// Transcript is a STROBE protocol instance at the 256-bit security level.
type Transcript struct {
	s *strobe.Strobe
}

// New returns a transcript initialized with the given protocol name.
func New(name string) *Transcript {
	s, err := strobe.New(name, strobe.Bit256)
	if err != nil {
		panic(err)
	}

	return &Transcript{s: s}
}

// Append absorbs a labeled message.
func (t *Transcript) Append(label string, message []byte) {
	t.metaAD(append([]byte(label), littleEndianU32(len(message))...))
	t.ad(message)
}

// AppendPoint absorbs the encoding of a labeled point.
func (t *Transcript) AppendPoint(label string, p *curve.Point) {
	t.Append(label, p.Bytes())
}

// KEY keys the transcript with a copy of the given secret.
func (t *Transcript) KEY(key []byte) {
	if err := t.s.KEY(internal.Copy(key), false); err != nil {
		panic(err)
	}
}

// KEYRand keys the transcript with n bytes read from rand.
func (t *Transcript) KEYRand(rand io.Reader, n int) error {
	k := make([]byte, n)
	if _, err := io.ReadFull(rand, k); err != nil {
		return err
	}

	if err := t.s.KEY(k, false); err != nil {
		panic(err)
	}

	return nil
}

// PRF returns n bytes of pseudorandom output bound to a label.
func (t *Transcript) PRF(label string, n int) []byte {
	t.metaAD(append([]byte(label), littleEndianU32(n)...))

	out := make([]byte, n)
	if err := t.s.PRF(out, false); err != nil {
		panic(err)
	}

	return out
}

// PRFScalar returns a scalar derived from ScalarSize+16 bytes of PRF output.
func (t *Transcript) PRFScalar(label string, g curve.Group) *curve.Scalar {
	return g.ScalarFromWideBytes(t.PRF(label, g.ScalarSize()+16))
}

// Clone returns an independent copy of the transcript's state.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{s: t.s.Clone()}
}

func (t *Transcript) metaAD(data []byte) {
	if err := t.s.AD(data, metaOpts); err != nil {
		panic(err)
	}
}

func (t *Transcript) ad(data []byte) {
	if err := t.s.AD(data, defaultOpts); err != nil {
		panic(err)
	}
}

func littleEndianU32(n int) []byte {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], uint32(n))

	return b[:]
}

//nolint:gochecknoglobals // constants
var (
	defaultOpts = &strobe.Options{}
	metaOpts    = &strobe.Options{Meta: true}
)
