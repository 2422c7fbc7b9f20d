// Package models defines the persisted entities of the vault.
package models

import "time"

// Role is the privilege level of an account. Exactly one account system-wide
// ever holds RoleOwner; it is assigned atomically to the first registration
// that durably commits and is immutable afterwards.
type Role string

const (
	RoleOwner Role = "owner"
	RoleUser  Role = "user"
)

type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	// VerificationToken is non-empty until the account confirms its email.
	VerificationToken string
	// PublicKey is the PEM-encoded public half of the account's key pair.
	// The private half is never persisted anywhere server-side.
	PublicKey []byte
	Role      Role
	CreatedAt time.Time
}
