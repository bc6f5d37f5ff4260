// Package internal contains constants and helpers shared by PHE's protocol layer.
//
// The subpackages of internal contain the curve adapter, the hash-to-point map, the record framer,
// the STROBE transcripts, and the oblivious evaluator.
package internal

import (
	"github.com/mr-tron/base58"
)

const (
	NonceSize = 32 // NonceSize is the length of server and client nonces in bytes.
	KeySize   = 32 // KeySize is the length of the derived record key in bytes.
)

// Domain separation labels for the protocol's hash-to-point inputs.
const (
	DomainHS0 = "phe.hs0"
	DomainHS1 = "phe.hs1"
	DomainHC0 = "phe.hc0"
	DomainHC1 = "phe.hc1"
	DomainM   = "phe.m"
	DomainKey = "phe.key"
)

// Must panics if the given error is not nil.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// Copy returns a copy of the given slice.
func Copy(b []byte) []byte {
	c := make([]byte, len(b))

	copy(c, b)

	return c
}

// ASCIIEncode encodes the given bytes as base58 text.
func ASCIIEncode(b []byte) []byte {
	return []byte(base58.Encode(b))
}

// ASCIIDecode decodes base58 text.
func ASCIIDecode(text []byte) ([]byte, error) {
	return base58.Decode(string(text))
}
