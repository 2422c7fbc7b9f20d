// Package vault is the client-side half of the encryption protocol: it opens
// ciphertext envelopes with the locally held private key and derives live
// TOTP codes from decrypted seeds. Nothing here ever talks to the server.
package vault

import (
	"time"

	"github.com/avilks/passvault/internal/client/api"
	"github.com/avilks/passvault/internal/cryptox"
	"github.com/avilks/passvault/internal/totp"
)

// DecryptPassword opens a credential envelope and returns the plaintext
// password. The caller should wipe the result when done displaying it.
func DecryptPassword(privateKeyPEM []byte, cred api.Credential) (string, error) {
	plain, err := cryptox.Decrypt(privateKeyPEM, cred.PasswordCiphertext)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Code decrypts an authenticator's seed and derives the code for the window
// containing at, together with the seconds the window has left.
func Code(privateKeyPEM []byte, entry api.Authenticator, at time.Time) (code string, remaining int, err error) {
	seed, err := cryptox.Decrypt(privateKeyPEM, entry.SecretCiphertext)
	if err != nil {
		return "", 0, err
	}

	code, err = totp.Code(string(seed), entry.Digits, entry.Period, entry.Algorithm, at)
	if err != nil {
		return "", 0, err
	}
	return code, totp.Remaining(entry.Period, at), nil
}
