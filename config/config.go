// Package config holds the explicit configuration passed into the token
// lifecycle components at construction time. There are no process-wide
// mutable globals; every command builds its dependencies from one Config.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/andrewbearsley/withings-skill/credstore"
	"github.com/andrewbearsley/withings-skill/withings"
	"github.com/go-playground/validator/v10"
)

// StoreBackend selects where the credential is persisted.
type StoreBackend string

const (
	StoreBackendFile    StoreBackend = "file"
	StoreBackendSQLite  StoreBackend = "sqlite"
	StoreBackendKeyring StoreBackend = "keyring"
)

// Default configuration values.
var (
	DefaultStoreBackend = StoreBackendFile
	DefaultStorePath    = filepath.Join(os.Getenv("HOME"), ".withings", "credentials.json")
	DefaultSQLitePath   = filepath.Join(os.Getenv("HOME"), ".withings", "credentials.db")
)

// StoreConfig describes how to construct the credential store.
type StoreConfig struct {
	Backend StoreBackend `json:"backend" validate:"required,oneof=file sqlite keyring"`

	// Backend-specific settings (used based on Backend).
	Path        string `json:"path,omitempty"`         // for file and sqlite backends
	KeyringUser string `json:"keyring_user,omitempty"` // for the keyring backend
}

// Config holds the application's configuration.
type Config struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret"` // prompted interactively when empty
	RedirectURI  string `json:"redirect_uri" validate:"required,url"`
	Scope        string `json:"scope"`
	AuthorizeURL string `json:"authorize_url" validate:"omitempty,url"`
	TokenURL     string `json:"token_url" validate:"omitempty,url"`

	Store StoreConfig `json:"store"`
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Scope == "" {
		c.Scope = withings.DefaultScope
	}
	if c.AuthorizeURL == "" {
		c.AuthorizeURL = withings.DefaultAuthorizeURL
	}
	if c.TokenURL == "" {
		c.TokenURL = withings.DefaultTokenURL
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Store.Path == "" {
		switch c.Store.Backend {
		case StoreBackendSQLite:
			c.Store.Path = DefaultSQLitePath
		default:
			c.Store.Path = DefaultStorePath
		}
	}
}

// Validate validates the configuration using struct tags and per-backend
// requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Store.Backend {
	case StoreBackendFile, StoreBackendSQLite:
		if c.Store.Path == "" {
			return errors.New("store path required for " + string(c.Store.Backend) + " backend")
		}
	case StoreBackendKeyring:
		if c.Store.KeyringUser == "" {
			return errors.New("store keyring_user required for keyring backend")
		}
	}

	return nil
}

// NewStore creates the credential store described by the configuration.
// For the sqlite backend the returned close function must be called when the
// store is no longer needed; for the others it is a no-op.
func (s *StoreConfig) NewStore() (credstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch s.Backend {
	case StoreBackendFile:
		store, err := credstore.NewFileStore(s.Path)
		return store, noop, err
	case StoreBackendSQLite:
		db, err := credstore.OpenSQLite(s.Path)
		if err != nil {
			return nil, nil, err
		}
		store, err := credstore.NewSQLiteStore(db)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return credstore.CloseSQLite(db) }, nil
	case StoreBackendKeyring:
		store, err := credstore.NewKeyringStore(s.KeyringUser)
		return store, noop, err
	default:
		return nil, nil, errors.New("unsupported store backend: " + string(s.Backend))
	}
}

// ClientConfig converts the configuration into the provider client's settings.
func (c *Config) ClientConfig() withings.ClientConfig {
	return withings.ClientConfig{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		Scope:        c.Scope,
		AuthorizeURL: c.AuthorizeURL,
		TokenURL:     c.TokenURL,
	}
}
