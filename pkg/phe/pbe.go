package phe

import (
	"crypto/cipher"
	"encoding"
	"encoding/binary"

	"github.com/codahale/phe/pkg/phe/internal/der"
	"github.com/codahale/phe/pkg/phe/internal/rng"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/xerrors"
)

// Argon2idParams contains the parameters of the Argon2id passphrase-based KDF algorithm.
type Argon2idParams struct {
	Time, Memory uint32 // The time and memory Argon2id parameters.
	Parallelism  uint8  // The parallelism Argon2id parameter.
}

func (p *Argon2idParams) valid() bool {
	return p.Time > 0 && p.Time <= maxTime && p.Memory <= maxMemory && p.Parallelism > 0
}

// ErrInvalidPassphrase is returned when an encrypted key cannot be decrypted, either due to an
// incorrect passphrase or tampering.
var ErrInvalidPassphrase = xerrors.New("invalid passphrase")

// EncryptServerKeyPair encrypts the key pair with the given passphrase and optional Argon2id
// parameters.
func EncryptServerKeyPair(kp *ServerKeyPair, passphrase []byte, params *Argon2idParams) ([]byte, error) {
	return encryptKey(kp, passphrase, params)
}

// DecryptServerKeyPair decrypts the results of EncryptServerKeyPair.
func DecryptServerKeyPair(data, passphrase []byte) (*ServerKeyPair, error) {
	var kp ServerKeyPair
	if err := decryptKey(&kp, data, passphrase); err != nil {
		return nil, err
	}

	return &kp, nil
}

// EncryptClientKey encrypts the client key with the given passphrase and optional Argon2id
// parameters.
func EncryptClientKey(ck *ClientKey, passphrase []byte, params *Argon2idParams) ([]byte, error) {
	return encryptKey(ck, passphrase, params)
}

// DecryptClientKey decrypts the results of EncryptClientKey.
func DecryptClientKey(data, passphrase []byte) (*ClientKey, error) {
	var ck ClientKey
	if err := decryptKey(&ck, data, passphrase); err != nil {
		return nil, err
	}

	return &ck, nil
}

func encryptKey(key encoding.BinaryMarshaler, passphrase []byte, params *Argon2idParams) ([]byte, error) {
	// Use default parameters if none are provided.
	if params == nil {
		// As recommended in https://www.rfc-editor.org/rfc/rfc9106.html#section-4.
		params = &Argon2idParams{
			Time:        3,
			Memory:      64 * 1024, // 64MiB
			Parallelism: 4,
		}
	}

	if !params.valid() {
		return nil, xerrors.Errorf("invalid Argon2id parameters: %+v", *params)
	}

	plaintext, err := key.MarshalBinary()
	if err != nil {
		return nil, err
	}

	// Generate a random salt.
	salt := make([]byte, saltSize)
	if _, err := rng.Read(salt); err != nil {
		return nil, err
	}

	// Use Argon2id to derive a key and nonce from the passphrase and salt.
	p := encodeParams(params)
	aead, nonce := pbeKDF(passphrase, salt, params)

	// Encrypt the key, authenticating the parameters and salt.
	ciphertext := aead.Seal(nil, nonce, plaintext, pbeAD(p, salt))

	// Frame the Argon2id params, the salt, and the ciphertext.
	return der.Encode(p, salt, ciphertext)
}

func decryptKey(key encoding.BinaryUnmarshaler, data, passphrase []byte) error {
	// Decode the Argon2id params, the salt, and the ciphertext.
	parts, err := der.DecodeN(data, 3)
	if err != nil {
		return xerrors.Errorf("invalid encrypted key: %w", err)
	}

	p, salt, ciphertext := parts[0], parts[1], parts[2]
	if len(p) != paramsSize || len(salt) != saltSize {
		return xerrors.Errorf("invalid encrypted key: %w",
			&FormatError{Offset: der.PartOffset(data, 0), Reason: "invalid parameter or salt length"})
	}

	params := &Argon2idParams{
		Time:        binary.BigEndian.Uint32(p[0:]),
		Memory:      binary.BigEndian.Uint32(p[4:]),
		Parallelism: p[8],
	}

	if !params.valid() {
		return xerrors.Errorf("invalid encrypted key: %w",
			&FormatError{Offset: der.PartOffset(data, 0), Reason: "invalid Argon2id parameters"})
	}

	// Use Argon2id to re-derive the key and nonce from the passphrase and salt.
	aead, nonce := pbeKDF(passphrase, salt, params)

	// Decrypt the key.
	plaintext, err := aead.Open(nil, nonce, ciphertext, pbeAD(p, salt))
	if err != nil {
		return ErrInvalidPassphrase
	}

	return key.UnmarshalBinary(plaintext)
}

// pbeKDF uses Argon2id to derive a ChaCha20Poly1305 AEAD and nonce from the passphrase, salt, and
// parameters.
func pbeKDF(passphrase, salt []byte, params *Argon2idParams) (cipher.AEAD, []byte) {
	kn := argon2.IDKey(passphrase, salt, params.Time, params.Memory, params.Parallelism,
		chacha20poly1305.KeySize+chacha20poly1305.NonceSize)

	c, err := chacha20poly1305.New(kn[:chacha20poly1305.KeySize])
	if err != nil {
		panic(err)
	}

	return c, kn[chacha20poly1305.KeySize:]
}

func pbeAD(params, salt []byte) []byte {
	return append(append(make([]byte, 0, len(params)+len(salt)), params...), salt...)
}

func encodeParams(params *Argon2idParams) []byte {
	p := make([]byte, paramsSize)
	binary.BigEndian.PutUint32(p[0:], params.Time)
	binary.BigEndian.PutUint32(p[4:], params.Memory)
	p[8] = params.Parallelism

	return p
}

const (
	saltSize   = 16
	paramsSize = 4 + 4 + 1

	// Upper bounds on the costs an encrypted key may demand of its reader.
	maxTime   = 64
	maxMemory = 4 * 1024 * 1024 // 4GiB
)
