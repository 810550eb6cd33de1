package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService identifies this application's entries in the OS keyring.
const keyringService = "withings-skill"

// KeyringStore persists the credential as a JSON blob in the OS-native
// credential store (macOS Keychain, Windows Credential Manager, or the Linux
// Secret Service). Confidentiality is delegated to the OS.
type KeyringStore struct {
	user string
}

// Compile-time check that KeyringStore implements Store.
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the given user identifier.
func NewKeyringStore(user string) (*KeyringStore, error) {
	if user == "" {
		return nil, fmt.Errorf("keyring user cannot be empty")
	}
	return &KeyringStore{user: user}, nil
}

// Load returns the credential from the system keyring.
func (k *KeyringStore) Load(ctx context.Context) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := keyring.Get(keyringService, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(blob), &cred); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := cred.validate(); err != nil {
		return nil, err
	}

	return &cred, nil
}

// Save persists the credential to the system keyring, overwriting any
// existing entry.
func (k *KeyringStore) Save(ctx context.Context, cred *Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to serialize credential: %w", err)
	}

	if err := keyring.Set(keyringService, k.user, string(data)); err != nil {
		return fmt.Errorf("failed to write credential to keyring: %w", err)
	}
	return nil
}
