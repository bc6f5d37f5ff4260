package phe

import (
	"io"

	"github.com/codahale/phe/pkg/phe/internal/rng"
	"github.com/rs/zerolog"
)

// Option configures a Server or Client.
type Option func(*options)

type options struct {
	rand io.Reader
	log  zerolog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		rand: rng.Reader,
		log:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithRandom sets the source of randomness for nonces, blinding scalars and key generation. The
// default is a STROBE-hedged reader over crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.rand = r
		}
	}
}

// WithLogger sets the logger for protocol events. The default discards all events. Secrets,
// passwords and keys are never logged.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}
