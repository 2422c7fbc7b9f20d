package models

import "time"

// Authenticator is one stored TOTP seed with its derivation parameters. The
// shared secret only ever exists here as a cryptox envelope; digits, period,
// and algorithm are non-secret provisioning metadata.
type Authenticator struct {
	ID               string
	ServiceID        string
	Name             string
	SecretCiphertext []byte
	Digits           int
	Period           int
	Algorithm        string
	DeviceID         string
	CreatedAt        time.Time
}
