// Package credential persists the bearer credential across process restarts.
// Exactly one credential is stored at a time, under a single key.
package credential

import (
	"errors"
	"time"
)

// Key is the name under which the credential is persisted.
const Key = "token"

// ErrCorrupt is returned when the stored credential cannot be decoded.
var ErrCorrupt = errors.New("stored credential is corrupt")

// Credential is the persisted session credential.
type Credential struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the credential has a known expiry at or before now.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store is durable storage for a single credential.
type Store interface {
	// Load returns the stored credential. ok is false if none is stored.
	Load() (cred Credential, ok bool, err error)

	// Save replaces the stored credential.
	Save(cred Credential) error

	// Clear removes everything the store holds. Clearing an empty store
	// is not an error.
	Clear() error
}
