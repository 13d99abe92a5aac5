package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

const currentSchemaVersion = 1

// Store is the local classification cache. It survives across runs so
// that re-running a sync only pays for classifications it has never
// seen before.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable and writable
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		version = 0
	} else if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version >= currentSchemaVersion {
		return nil
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS classifications (
			cache_key  TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create classifications: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sidecar_roles (
			cache_key  TEXT PRIMARY KEY,
			role       TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create sidecar_roles: %w", err)
	}

	if version == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	} else {
		if _, err := s.db.Exec("UPDATE schema_version SET version = ?", currentSchemaVersion); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
	}

	return nil
}
