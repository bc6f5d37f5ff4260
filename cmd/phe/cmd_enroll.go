package main

import (
	"encoding/hex"
	"fmt"

	"github.com/codahale/phe/pkg/phe"
	"github.com/rs/zerolog"
)

type enrollCmd struct {
	ServerKey string `arg:"" type:"existingfile" help:"The path to the encrypted server key pair."`
	ClientKey string `arg:"" type:"existingfile" help:"The path to the encrypted client key."`
	Record    string `arg:"" type:"path" help:"The output path for the enrollment record."`

	PasswordFile string `type:"existingfile" help:"Read the password from a file instead of prompting. Trailing line endings are dropped."`
}

func (cmd *enrollCmd) Run(log zerolog.Logger, pass passphraseFile) error {
	// Decrypt the server and client keys.
	server, client, err := loadParties(cmd.ServerKey, cmd.ClientKey, pass, log)
	if err != nil {
		return err
	}

	// Read the password.
	password, err := readPassword(cmd.PasswordFile)
	if err != nil {
		return err
	}

	// Run the enrollment round.
	resp, err := server.GetEnrollment()
	if err != nil {
		return err
	}

	rec, key, err := client.EnrollAccount(password, resp)
	if err != nil {
		return err
	}

	// Write out the record and print its key.
	if err := writeText(cmd.Record, rec, 0644); err != nil {
		return err
	}

	_, err = fmt.Println(hex.EncodeToString(key))

	return err
}

func loadParties(serverKey, clientKey string, pass passphraseFile, log zerolog.Logger) (*phe.Server, *phe.Client, error) {
	passphrase, err := pass.read()
	if err != nil {
		return nil, nil, err
	}

	kp, err := decryptServerKeyPair(serverKey, passphrase)
	if err != nil {
		return nil, nil, err
	}

	ck, err := decryptClientKey(clientKey, passphrase)
	if err != nil {
		return nil, nil, err
	}

	client, err := phe.NewClient(ck, kp.PublicKey(), phe.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	return phe.NewServer(kp, phe.WithLogger(log)), client, nil
}
