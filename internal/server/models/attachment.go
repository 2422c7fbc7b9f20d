package models

import "time"

// Attachment records a client-side-encrypted blob stored in the object
// backend. The server only ever sees the storage key, never the bytes.
type Attachment struct {
	ID         string
	ServiceID  string
	FileName   string
	StorageKey string
	CreatedAt  time.Time
}
