// Package totp derives time-based one-time codes (RFC 6238) from a shared
// secret. The engine is pure: given the same secret, parameters, and instant
// it always yields the same code, and it touches no persisted state. Window
// tolerance for verification is the caller's policy, not the engine's.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"errors"
	"fmt"
	"hash"
	"math"
	"strings"
	"time"
)

const (
	DefaultDigits    = 6
	DefaultPeriod    = 30
	DefaultAlgorithm = "SHA-1"

	maxDigits = 8
)

var (
	ErrInvalidSecret    = errors.New("invalid secret")
	ErrInvalidDigits    = errors.New("invalid digit count")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrUnknownAlgorithm = errors.New("unknown digest algorithm")
)

// hashForAlgorithm resolves a digest name to its constructor. Both the
// provisioning-URI spelling ("SHA1") and the hyphenated one ("SHA-1") are
// accepted.
func hashForAlgorithm(name string) (func() hash.Hash, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), "-", "")
	switch normalized {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA224":
		return sha256.New224, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA384":
		return sha512.New384, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// decodeSecret parses a Base32 shared secret the way provisioning tools emit
// it: case-insensitive, optional padding, incidental spaces ignored.
func decodeSecret(secret string) ([]byte, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	cleaned = strings.TrimRight(cleaned, "=")
	if cleaned == "" {
		return nil, ErrInvalidSecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return key, nil
}

// Code computes the TOTP code for the window containing at.
//
// Zero values of digits, period, and algorithm fall back to the provisioning
// defaults (6, 30, SHA-1). The result is a decimal string of exactly digits
// characters, left-padded with zeros.
func Code(secret string, digits, period int, algorithm string, at time.Time) (string, error) {
	if digits == 0 {
		digits = DefaultDigits
	}
	if period == 0 {
		period = DefaultPeriod
	}
	if digits < 1 || digits > maxDigits {
		return "", fmt.Errorf("%w: %d", ErrInvalidDigits, digits)
	}
	if period < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPeriod, period)
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	newHash, err := hashForAlgorithm(algorithm)
	if err != nil {
		return "", err
	}

	counter := at.Unix() / int64(period)
	code := hotp(newHash, key, counter, digits)
	return fmt.Sprintf("%0*d", digits, code), nil
}

// Remaining reports how many seconds of the window containing at are left.
// Useful for countdown displays next to a live code.
func Remaining(period int, at time.Time) int {
	if period < 1 {
		period = DefaultPeriod
	}
	return period - int(at.Unix()%int64(period))
}

// hotp implements the RFC 4226 dynamic truncation over an HMAC of the
// big-endian counter.
func hotp(newHash func() hash.Hash, key []byte, counter int64, digits int) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(newHash, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	// Low 4 bits of the last byte select the truncation offset.
	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]) << 16) |
		(int(sum[offset+2]) << 8) |
		int(sum[offset+3])

	return code % int(math.Pow10(digits))
}
