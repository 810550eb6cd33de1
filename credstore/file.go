package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileStore persists the credential as a JSON file with owner-only
// permissions. Writes use temp file + rename so a crash mid-write can never
// leave a truncated store, and a concurrent reader never sees a partial file.
type FileStore struct {
	path string
}

// Compile-time check that FileStore implements Store.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credential file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}

	return &FileStore{path: path}, nil
}

// Load reads and parses the credential file. Permission bits weaker than
// owner-only are tightened in place with a warning rather than rejected, so a
// store loosened by outside tooling heals on the next read.
func (f *FileStore) Load(ctx context.Context) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat credential file: %w", err)
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		log.Warn().Str("path", f.path).Str("perm", fmt.Sprintf("%04o", perm)).
			Msg("Credential file is accessible to other users, tightening to 0600")
		if err := os.Chmod(f.path, 0o600); err != nil {
			return nil, fmt.Errorf("failed to repair credential file permissions: %w", err)
		}
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := cred.validate(); err != nil {
		return nil, err
	}

	return &cred, nil
}

// Save atomically writes the credential. The temp file is created with 0600
// before any content is written, so there is no window where the tokens are
// readable by other users.
func (f *FileStore) Save(ctx context.Context, cred *Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to serialize credential: %w", err)
	}

	dir := filepath.Dir(f.path)
	tempFile, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	// CreateTemp opens with 0600 already; chmod anyway in case of umask-bending
	// platforms so the rename target is always owner-only.
	if err := tempFile.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to set temp credential file permissions: %w", err)
	}

	if _, err := tempFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp credential file: %w", err)
	}

	if err := os.Rename(tempName, f.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}

	log.Debug().Str("path", f.path).Msg("Credential saved")
	return nil
}
