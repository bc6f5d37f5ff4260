package main

import (
	"os"

	"github.com/codahale/phe/pkg/phe"
	"github.com/rs/zerolog"
)

type clientKeyCmd struct {
	Output string `arg:"" type:"path" help:"The output path for the encrypted client key."`
}

func (cmd *clientKeyCmd) Run(suite *phe.Suite, log zerolog.Logger, pass passphraseFile) error {
	// Read the PBE passphrase.
	passphrase, err := pass.read()
	if err != nil {
		return err
	}

	// Generate a new client key.
	ck, err := suite.GenerateClientKey(nil)
	if err != nil {
		return err
	}

	log.Info().Str("suite", suite.Name()).Msg("client key generated")

	// Encrypt the key with the passphrase.
	eck, err := phe.EncryptClientKey(ck, passphrase, nil)
	if err != nil {
		return err
	}

	// Write out the encrypted key.
	return os.WriteFile(cmd.Output, eck, 0600)
}
