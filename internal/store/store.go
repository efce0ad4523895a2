package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/workproof/workproof/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ PackageStore    = (*Store)(nil)
	_ ValidationStore = (*Store)(nil)
	_ ContentStore    = (*Store)(nil)
)

// Store is a content-addressed store backed by SQLite. Entries are keyed
// by the lowercase hex content hash. Writes are last-write-wins: putting
// the same hash twice overwrites the previous entry. The two namespaces
// (packages and validation records) are separate tables, so a lookup in
// one never returns data from the other.
type Store struct {
	db *sql.DB
}

// New creates a new Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	// Ensure the schema_version table exists.
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh database: initialize to version 0.
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// migrations is an ordered list of migration functions.
	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: initial schema
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}

	return nil
}

// migrateV1 creates the initial schema (v0 → v1).
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS packages (
		hash      TEXT PRIMARY KEY,
		payload   BLOB NOT NULL,
		stored_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS validations (
		hash      TEXT PRIMARY KEY,
		payload   BLOB NOT NULL,
		stored_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Package namespace
// ---------------------------------------------------------------------------

// PutPackage stores canonical package bytes under their content hash.
// Idempotent: re-putting the same hash replaces the entry.
func (s *Store) PutPackage(ctx context.Context, hash model.ContentHash, data []byte) error {
	return s.put(ctx, "packages", hash, data)
}

// GetPackage returns the canonical package bytes for a hash, or
// ErrNotFound.
func (s *Store) GetPackage(ctx context.Context, hash model.ContentHash) ([]byte, error) {
	return s.get(ctx, "packages", hash)
}

// ---------------------------------------------------------------------------
// Validation namespace
// ---------------------------------------------------------------------------

// PutValidation stores an encoded validation record under the hash of the
// package it validates. A re-validation overwrites the previous record.
func (s *Store) PutValidation(ctx context.Context, hash model.ContentHash, data []byte) error {
	return s.put(ctx, "validations", hash, data)
}

// GetValidation returns the encoded validation record for a hash, or
// ErrNotFound.
func (s *Store) GetValidation(ctx context.Context, hash model.ContentHash) ([]byte, error) {
	return s.get(ctx, "validations", hash)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// put performs a last-write-wins upsert into the named namespace table.
// The table name is always one of the two compile-time constants above,
// never caller input.
func (s *Store) put(ctx context.Context, table string, hash model.ContentHash, data []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := fmt.Sprintf(`
		INSERT INTO %s (hash, payload, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			payload = excluded.payload,
			stored_at = excluded.stored_at`, table)
	_, err := s.db.ExecContext(ctx, query, hash.Hex(), data, now)
	return err
}

func (s *Store) get(ctx context.Context, table string, hash model.ContentHash) ([]byte, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE hash = ?`, table)
	var data []byte
	err := s.db.QueryRowContext(ctx, query, hash.Hex()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
