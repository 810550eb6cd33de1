package credstore

import (
	"errors"
	"fmt"
	"time"
)

// Credential is the persisted unit of authorization state for the single
// linked Withings account. Exactly one Credential is live per store.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // absolute unix seconds, computed at receipt
	UserID       string `json:"user_id"`    // stored for diagnostic display only
}

// Sentinel errors shared by all store backends.
var (
	// ErrNotFound means no credential has been stored yet.
	ErrNotFound = errors.New("no credential found; run 'withings authorize' to link an account")

	// ErrCorrupt means the stored content is unreadable or incomplete and a
	// new authorization is required.
	ErrCorrupt = errors.New("stored credential is corrupt; run 'withings authorize' to re-link the account")
)

// ExpiresIn reports how long until the credential's nominal expiry. Negative
// when already expired.
func (c *Credential) ExpiresIn(now time.Time) time.Duration {
	return time.Unix(c.ExpiresAt, 0).Sub(now)
}

// validate checks that all required fields are present. UserID is optional
// since it is diagnostic only.
func (c *Credential) validate() error {
	switch {
	case c.AccessToken == "":
		return fmt.Errorf("%w: missing access_token", ErrCorrupt)
	case c.RefreshToken == "":
		return fmt.Errorf("%w: missing refresh_token", ErrCorrupt)
	case c.ExpiresAt == 0:
		return fmt.Errorf("%w: missing expires_at", ErrCorrupt)
	}
	return nil
}
