package sqlite

import (
	"database/sql"
	"errors"
)

// adminPasswordKey holds the Argon2id hash synced from admin_password.
const adminPasswordKey = "admin_password_hash"

// GetAdminPasswordHash returns the synced hash, or "" when the admin API is
// disabled.
func (s *Storage) GetAdminPasswordHash() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStorageClosed
	}
	return s.setting(adminPasswordKey)
}

// SetAdminPasswordHash replaces the synced hash.
func (s *Storage) SetAdminPasswordHash(hash string) error {
	if hash == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO admin_settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, adminPasswordKey, hash)
	return err
}

// ClearAdminPasswordHash removes the synced hash, locking the admin API.
// It reports whether a hash was present.
func (s *Storage) ClearAdminPasswordHash() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM admin_settings WHERE key = ?", adminPasswordKey)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// HasAdminPassword reports whether the admin API is enabled.
func (s *Storage) HasAdminPassword() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStorageClosed
	}

	var enabled bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM admin_settings WHERE key = ? AND value != '')",
		adminPasswordKey,
	).Scan(&enabled)
	return enabled, err
}

// setting reads one admin_settings value; a missing key is "". Callers hold s.mu.
func (s *Storage) setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM admin_settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}
