package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/avilks/passvault/internal/common"
)

// Envelope layout, front to back:
//
//	[2-byte big-endian wrapped-key length][RSA-OAEP wrapped AES key]
//	[12-byte GCM nonce][AES-256-GCM sealed payload]
//
// A fresh AES key and nonce are drawn per call, so ciphertext is never
// deterministic even for repeated plaintexts. The hybrid construction lifts
// the RSA plaintext-size ceiling off the payload: only the 32-byte AES key is
// wrapped asymmetrically.

const (
	aesKeySize = 32
	nonceSize  = 12
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// EncryptForAccount seals plaintext for the account whose PEM-encoded public
// key is given. Any failure must abort the enclosing write: no vault row may
// be committed with a missing or partial ciphertext.
func EncryptForAccount(publicKeyPEM []byte, plaintext []byte) ([]byte, error) {
	pub, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	key := common.GenerateRandByteArray(aesKeySize)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return nil, fmt.Errorf("wrapping key: %w", err)
	}

	envelope := make([]byte, 0, 2+len(wrapped)+len(nonce)+len(sealed))
	envelope = binary.BigEndian.AppendUint16(envelope, uint16(len(wrapped)))
	envelope = append(envelope, wrapped...)
	envelope = append(envelope, nonce...)
	envelope = append(envelope, sealed...)
	return envelope, nil
}

// Decrypt opens an envelope with the PEM-encoded private key. This is the
// client-side half of the protocol; the server has no code path that can
// reach it with a real key.
func Decrypt(privateKeyPEM []byte, envelope []byte) ([]byte, error) {
	priv, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	if len(envelope) < 2 {
		return nil, ErrMalformedEnvelope
	}
	wrappedLen := int(binary.BigEndian.Uint16(envelope))
	rest := envelope[2:]
	if len(rest) < wrappedLen+nonceSize {
		return nil, ErrMalformedEnvelope
	}

	wrapped := rest[:wrappedLen]
	nonce := rest[wrappedLen : wrappedLen+nonceSize]
	sealed := rest[wrappedLen+nonceSize:]

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrapping key: %w", err)
	}
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("opening payload: %w", err)
	}
	return plaintext, nil
}
