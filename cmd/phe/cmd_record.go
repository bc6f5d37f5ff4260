package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/codahale/phe/pkg/phe"
)

type encodeCmd struct {
	Parts []string `arg:"" optional:"" help:"The hex-encoded parts, in order."`
}

func (cmd *encodeCmd) Run() error {
	parts := make([][]byte, len(cmd.Parts))

	for i, s := range cmd.Parts {
		b, err := hex.DecodeString(s)
		if err != nil {
			return err
		}

		parts[i] = b
	}

	record, err := phe.EncodeRecord(parts...)
	if err != nil {
		return err
	}

	_, err = fmt.Println(base64.StdEncoding.EncodeToString(record))

	return err
}

type decodeCmd struct {
	Record string `arg:"" help:"The base64-encoded record."`
}

func (cmd *decodeCmd) Run() error {
	record, err := base64.StdEncoding.DecodeString(cmd.Record)
	if err != nil {
		return err
	}

	parts, err := phe.DecodeRecord(record)
	if err != nil {
		return err
	}

	for _, p := range parts {
		if _, err := fmt.Println(hex.EncodeToString(p)); err != nil {
			return err
		}
	}

	return nil
}
