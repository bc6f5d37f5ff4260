package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/codahale/phe/pkg/phe"
	"github.com/rs/zerolog"
	"golang.org/x/term"
	"golang.org/x/xerrors"
)

type cli struct {
	Curve    string `enum:"P-256,P-384,P-521" default:"P-256" env:"PHE_CURVE" help:"The curve for new keys and points."`
	LogLevel string `enum:"debug,info,warn,error,disabled" default:"warn" env:"PHE_LOG_LEVEL" help:"The log level."`

	PassphraseFile string `type:"existingfile" env:"PHE_PASSPHRASE_FILE" help:"Read the key passphrase from a file instead of prompting."`

	ServerKey   serverKeyCmd   `cmd:"" help:"Generate a new server key pair."`
	PublicKey   publicKeyCmd   `cmd:"" help:"Print the public key of a server key pair."`
	ClientKey   clientKeyCmd   `cmd:"" help:"Generate a new client key."`
	Enroll      enrollCmd      `cmd:"" help:"Enroll a password and print the record key."`
	Verify      verifyCmd      `cmd:"" help:"Verify a password against a record and print the record key."`
	HashToPoint hashToPointCmd `cmd:"" help:"Map data to a curve point."`
	Encode      encodeCmd      `cmd:"" help:"Frame hex-encoded parts as a base64 record."`
	Decode      decodeCmd      `cmd:"" help:"Print the hex-encoded parts of a base64 record."`
}

func main() {
	var cli cli

	ctx := kong.Parse(&cli)

	log, err := newLogger(os.Stderr, cli.LogLevel)
	ctx.FatalIfErrorf(err)

	suite, err := phe.NewSuite(cli.Curve)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(suite, log, passphraseFile(cli.PassphraseFile))
	ctx.FatalIfErrorf(err)
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger(), nil
}

func readPassword(path string) ([]byte, error) {
	if path == "" {
		return askPassphrase("Enter password: ")
	}

	return readSecret(path)
}

// passphraseFile is the optional path of a file holding the passphrase which protects key files.
type passphraseFile string

func (p passphraseFile) read() ([]byte, error) {
	if p == "" {
		return askPassphrase("Enter passphrase: ")
	}

	return readSecret(string(p))
}

// readSecret reads a password or passphrase from a file, dropping trailing line endings.
func readSecret(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return bytes.TrimRight(b, "\r\n"), nil
}

func decryptServerKeyPair(path string, passphrase []byte) (*phe.ServerKeyPair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	kp, err := phe.DecryptServerKeyPair(b, passphrase)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}

	return kp, nil
}

func decryptClientKey(path string, passphrase []byte) (*phe.ClientKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ck, err := phe.DecryptClientKey(b, passphrase)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}

	return ck, nil
}

func askPassphrase(prompt string) ([]byte, error) {
	defer func() { _, _ = fmt.Fprintln(os.Stderr) }()

	_, _ = fmt.Fprint(os.Stderr, prompt)

	return term.ReadPassword(int(os.Stdin.Fd()))
}

type textUnmarshaler interface {
	UnmarshalText([]byte) error
}

type textMarshaler interface {
	MarshalText() ([]byte, error)
}

// readText decodes the base58 contents of a file, ignoring surrounding whitespace.
func readText(path string, v textUnmarshaler) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := v.UnmarshalText(bytes.TrimSpace(b)); err != nil {
		return xerrors.Errorf("%s: %w", path, err)
	}

	return nil
}

// writeText writes the base58 encoding of v to path, or to stdout if path is "-".
func writeText(path string, v textMarshaler, perm os.FileMode) error {
	text, err := v.MarshalText()
	if err != nil {
		return err
	}

	text = append(text, '\n')

	if path == "-" {
		_, err := os.Stdout.Write(text)

		return err
	}

	return os.WriteFile(path, text, perm)
}
