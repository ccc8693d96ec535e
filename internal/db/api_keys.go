package db

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a row does not exist or the caller does not
// own it
var ErrNotFound = errors.New("not found")

// prefixLen is how many leading characters of the plaintext key are kept for
// display in key listings.
const prefixLen = 8

// APIKey is the listable record of an issued key. The plaintext never leaves
// creation; only its SHA-256 hash is stored.
type APIKey struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// APIKeyWithSecret carries the plaintext key alongside the record. Returned
// once, from creation.
type APIKeyWithSecret struct {
	APIKey
	Key string `json:"key"`
}

// GenerateAPIKey mints a random key and returns the plaintext, its hash for
// storage, and the display prefix.
func GenerateAPIKey() (key, keyHash, prefix string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	key = base64.URLEncoding.EncodeToString(raw)
	return key, HashAPIKey(key), key[:prefixLen], nil
}

// HashAPIKey hashes a plaintext key the way it is stored.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return base64.URLEncoding.EncodeToString(sum[:])
}

// CreateAPIKey mints and stores a key for the user. expiresAt nil means the
// key never expires.
func (db *DB) CreateAPIKey(ctx context.Context, userID int64, name string, expiresAt *time.Time) (*APIKeyWithSecret, error) {
	key, keyHash, prefix, err := GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	rec := APIKey{
		UserID:    userID,
		Name:      name,
		KeyPrefix: prefix,
		ExpiresAt: expiresAt,
	}
	err = db.QueryRowContext(ctx,
		`INSERT INTO api_keys (user_id, name, key_hash, key_prefix, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id, created_at`,
		userID, name, keyHash, prefix, expiresAt,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert API key: %w", err)
	}

	return &APIKeyWithSecret{APIKey: rec, Key: key}, nil
}

// GetAPIKeysByUserID lists a user's keys, newest first.
func (db *DB) GetAPIKeysByUserID(ctx context.Context, userID int64) ([]APIKey, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, name, key_prefix, last_used_at, created_at, expires_at
		 FROM api_keys WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyPrefix, &k.LastUsedAt, &k.CreatedAt, &k.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}
	return keys, nil
}

// DeleteAPIKey removes a key the user owns. Returns ErrNotFound when the key
// does not exist or belongs to someone else.
func (db *DB) DeleteAPIKey(ctx context.Context, keyID, userID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM api_keys WHERE id = ? AND user_id = ?`,
		keyID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserByAPIKey resolves a plaintext key to its owner, rejecting expired
// keys and touching last_used_at on success.
func (db *DB) GetUserByAPIKey(ctx context.Context, key string) (int64, string, error) {
	var (
		keyID, userID int64
		email         string
		expiresAt     *time.Time
	)
	err := db.QueryRowContext(ctx,
		`SELECT k.id, k.user_id, k.expires_at, u.email
		 FROM api_keys k JOIN users u ON u.id = k.user_id
		 WHERE k.key_hash = ?`,
		HashAPIKey(key),
	).Scan(&keyID, &userID, &expiresAt, &email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", errors.New("invalid API key")
		}
		return 0, "", fmt.Errorf("failed to look up API key: %w", err)
	}

	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return 0, "", errors.New("API key expired")
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now(), keyID); err != nil {
		db.logger.Warn("failed to update API key last_used_at", zap.Error(err))
	}

	return userID, email, nil
}
