package main

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/codahale/phe/pkg/phe"
)

type hashToPointCmd struct {
	Data string `arg:"" help:"The hex-encoded input."`

	Digest bool `help:"Map the input directly instead of hashing it first."`
}

func (cmd *hashToPointCmd) Run(suite *phe.Suite) error {
	data, err := hex.DecodeString(cmd.Data)
	if err != nil {
		return err
	}

	var x, y *big.Int
	if cmd.Digest {
		x, y = suite.MapToPoint(data)
	} else {
		x, y = suite.DataToPoint(data)
	}

	_, err = fmt.Printf("x = %s\ny = %s\n", x, y)

	return err
}
