package models

import "time"

// Credential is one stored password entry. Username is plaintext metadata;
// the password only ever exists here as a cryptox envelope under the owning
// account's public key.
type Credential struct {
	ID                 string
	ServiceID          string
	Username           string
	PasswordCiphertext []byte
	// DeviceID is the opaque client-supplied tag that accompanied the write.
	DeviceID  string
	CreatedAt time.Time
}
