package main

import (
	"encoding/hex"
	"fmt"

	"github.com/codahale/phe/pkg/phe"
	"github.com/rs/zerolog"
)

type verifyCmd struct {
	ServerKey string `arg:"" type:"existingfile" help:"The path to the encrypted server key pair."`
	ClientKey string `arg:"" type:"existingfile" help:"The path to the encrypted client key."`
	Record    string `arg:"" type:"existingfile" help:"The path to the enrollment record."`

	PasswordFile string `type:"existingfile" help:"Read the password from a file instead of prompting. Trailing line endings are dropped."`
}

func (cmd *verifyCmd) Run(log zerolog.Logger, pass passphraseFile) error {
	// Decrypt the server and client keys.
	server, client, err := loadParties(cmd.ServerKey, cmd.ClientKey, pass, log)
	if err != nil {
		return err
	}

	// Decode the enrollment record.
	var rec phe.EnrollmentRecord
	if err := readText(cmd.Record, &rec); err != nil {
		return err
	}

	// Read the password.
	password, err := readPassword(cmd.PasswordFile)
	if err != nil {
		return err
	}

	// Run the verification round.
	req, err := client.CreateVerifyPasswordRequest(password, &rec)
	if err != nil {
		return err
	}

	resp, err := server.VerifyPassword(req)
	if err != nil {
		return err
	}

	key, err := client.CheckResponseAndDecrypt(password, &rec, resp)
	if err != nil {
		return err
	}

	// Print the record key.
	_, err = fmt.Println(hex.EncodeToString(key))

	return err
}
