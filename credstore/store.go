// Package credstore provides durable persistence for the single Withings
// account credential.
//
// Three backends are available behind the Store interface:
//   - File: a JSON file with atomic writes and owner-only permissions
//   - SQLite: a keyed record in a local SQLite database
//   - Keyring: OS-native credential storage (macOS Keychain, Secret Service, etc.)
//
// All backends report a missing credential as ErrNotFound and an unreadable or
// incomplete one as ErrCorrupt, so callers can tell "not linked yet" apart
// from "unusable, re-authorize".
package credstore

import "context"

// Store reads and writes the single persisted Credential.
type Store interface {
	// Load returns the stored credential. Returns ErrNotFound if nothing has
	// been stored yet, or an error wrapping ErrCorrupt if the stored content
	// cannot be parsed or is missing required fields.
	Load(ctx context.Context) (*Credential, error)

	// Save persists the credential, overwriting any previous one.
	Save(ctx context.Context, cred *Credential) error
}
