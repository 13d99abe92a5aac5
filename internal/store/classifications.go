package store

import (
	"database/sql"
	"fmt"
)

// GetClassification retrieves a cached classification payload by key.
// Returns ("", false, nil) when the key has never been cached.
func (s *Store) GetClassification(key string) (string, bool, error) {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM classifications WHERE cache_key = ?", key,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get classification: %w", err)
	}
	return payload, true, nil
}

// PutClassification stores a classification payload, replacing any
// previous entry for the key.
func (s *Store) PutClassification(key, payload string) error {
	_, err := s.db.Exec(`
		INSERT INTO classifications (cache_key, payload)
		VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			created_at = CURRENT_TIMESTAMP
		`, key, payload)
	if err != nil {
		return fmt.Errorf("failed to put classification: %w", err)
	}
	return nil
}

// GetSidecarRole retrieves a cached sidecar role by key.
// Returns ("", false, nil) when the key has never been cached. An
// empty role with ok=true is a cached "no role" answer.
func (s *Store) GetSidecarRole(key string) (string, bool, error) {
	var role string
	err := s.db.QueryRow(
		"SELECT role FROM sidecar_roles WHERE cache_key = ?", key,
	).Scan(&role)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get sidecar role: %w", err)
	}
	return role, true, nil
}

// PutSidecarRole stores a sidecar role, replacing any previous entry
func (s *Store) PutSidecarRole(key, role string) error {
	_, err := s.db.Exec(`
		INSERT INTO sidecar_roles (cache_key, role)
		VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			role = excluded.role,
			created_at = CURRENT_TIMESTAMP
		`, key, role)
	if err != nil {
		return fmt.Errorf("failed to put sidecar role: %w", err)
	}
	return nil
}

// CountClassifications returns the number of cached classifications
func (s *Store) CountClassifications() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM classifications").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count classifications: %w", err)
	}
	return count, nil
}
