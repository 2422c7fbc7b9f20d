package models

import "time"

// Service groups the vault entries belonging to one canonical URL, e.g. all
// credentials and authenticators for "https://example.com".
type Service struct {
	ID        string
	AccountID string
	URL       string
	CreatedAt time.Time
}
