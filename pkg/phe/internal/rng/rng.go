// Package rng provides the STROBE-hedged random source PHE uses by default.
//
// At startup, a STROBE protocol is initialized:
//
//     INIT('phe.rng', level=256)
//
// When a block of random data is required, a block B of equivalent size is read from the host
// machine's RNG, and the following operations performed:
//
//     AD(LE_U64(LEN(B)), meta=true)
//     KEY(B)
//     PRF(LEN(B)) -> B
//     RATCHET(32)
//
// This insulates PHE somewhat against a compromised host RNG, but it is still a deterministic
// function of the host RNG's output.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"github.com/codahale/phe/pkg/phe/internal"
	"github.com/sammyne/strobe"
)

// ratchetSize is the amount of state reset by each ratchet, sec/8 bytes for STROBE-256.
const ratchetSize = int(strobe.Bit256) / 8

// Read is a helper function that calls Reader.Read using io.ReadFull. On return, n == len(b) if and
// only if err == nil.
func Read(b []byte) (int, error) {
	return io.ReadFull(Reader, b)
}

//nolint:gochecknoglobals // need a singleton
// Reader is a global, shared instance of a cryptographically secure random number generator. It is
// safe for concurrent use.
var Reader = New(rand.Reader)

// New returns a hedged reader over the given source of entropy.
func New(src io.Reader) io.Reader {
	s, err := strobe.New("phe.rng", strobe.Bit256)
	internal.Must(err)

	return &reader{rng: s, src: src}
}

type reader struct {
	mu     sync.Mutex
	rng    *strobe.Strobe
	src    io.Reader
	lenBuf [8]byte
}

func (r *reader) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Include length of PRF request as associated data.
	binary.LittleEndian.PutUint64(r.lenBuf[:], uint64(len(p)))
	internal.Must(r.rng.AD(r.lenBuf[:], &strobe.Options{Meta: true}))

	// Read a new block of data from the underlying RNG.
	if _, err := io.ReadFull(r.src, p); err != nil {
		return 0, err
	}

	// Re-key the protocol with the block.
	internal.Must(r.rng.KEY(p, false))

	// Return the results of the PRF.
	internal.Must(r.rng.PRF(p, false))

	// Ratchet the state of the RNG to prevent rollback.
	internal.Must(r.rng.RATCHET(ratchetSize))

	return len(p), nil
}
