package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// credentialRecord is the single-row GORM model backing SQLiteStore.
type credentialRecord struct {
	ID           int `gorm:"primaryKey"`
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	UserID       string
}

// TableName keeps the table name stable if the struct is ever renamed.
func (credentialRecord) TableName() string { return "credentials" }

// SQLiteStore persists the credential as a keyed record in a local SQLite
// database. Use constructor NewSQLiteStore to obtain an instance.
type SQLiteStore struct {
	db *gorm.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a SQLiteStore on an open GORM handle. Accepts
// *gorm.DB to avoid global state and to allow in-memory databases in tests.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens (creating if necessary) the SQLite database at path and
// migrates the credential table.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Error().Err(err).Msg("Failed to create database directory")
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to open credential database")
		return nil, err
	}

	if err := db.AutoMigrate(&credentialRecord{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate credential database")
		return nil, err
	}

	// Silence GORM's own logger unless debug logging is on.
	if zerolog.GlobalLevel() == zerolog.Disabled {
		db.Logger = db.Logger.LogMode(0)
	} else {
		db.Logger = db.Logger.LogMode(4)
	}

	return db, nil
}

// CloseSQLite closes the underlying database connection.
func CloseSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	return sqlDB.Close()
}

// Load returns the stored credential record.
func (s *SQLiteStore) Load(ctx context.Context) (*Credential, error) {
	var rec credentialRecord
	err := s.db.WithContext(ctx).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential record: %w", err)
	}

	cred := &Credential{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresAt:    rec.ExpiresAt,
		UserID:       rec.UserID,
	}
	if err := cred.validate(); err != nil {
		return nil, err
	}
	return cred, nil
}

// Save upserts the single credential record.
func (s *SQLiteStore) Save(ctx context.Context, cred *Credential) error {
	rec := credentialRecord{
		ID:           1,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.ExpiresAt,
		UserID:       cred.UserID,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "user_id"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save credential record: %w", err)
	}
	return nil
}
