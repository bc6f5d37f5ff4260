package main

import (
	"os"

	"github.com/codahale/phe/pkg/phe"
	"github.com/rs/zerolog"
)

type serverKeyCmd struct {
	Output string `arg:"" type:"path" help:"The output path for the encrypted server key pair."`
}

func (cmd *serverKeyCmd) Run(suite *phe.Suite, log zerolog.Logger, pass passphraseFile) error {
	// Read the PBE passphrase.
	passphrase, err := pass.read()
	if err != nil {
		return err
	}

	// Generate a new server key pair.
	kp, err := suite.GenerateServerKeyPair(nil)
	if err != nil {
		return err
	}

	log.Info().Str("suite", suite.Name()).Str("public_key", kp.PublicKey().String()).Msg("server key generated")

	// Encrypt the key pair with the passphrase.
	ekp, err := phe.EncryptServerKeyPair(kp, passphrase, nil)
	if err != nil {
		return err
	}

	// Write out the encrypted key pair.
	return os.WriteFile(cmd.Output, ekp, 0600)
}
