package main

type publicKeyCmd struct {
	ServerKey string `arg:"" type:"existingfile" help:"The path to the encrypted server key pair."`
	Output    string `arg:"" type:"path" default:"-" help:"The output path for the public key."`
}

func (cmd *publicKeyCmd) Run(pass passphraseFile) error {
	passphrase, err := pass.read()
	if err != nil {
		return err
	}

	// Decrypt the server key pair.
	kp, err := decryptServerKeyPair(cmd.ServerKey, passphrase)
	if err != nil {
		return err
	}

	// Write out its public key.
	return writeText(cmd.Output, kp.PublicKey(), 0644)
}
