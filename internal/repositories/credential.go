package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CredentialRepository persists the bearer token in the singleton credentials row.
//
// It satisfies session.CredentialStore.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load returns the stored token, or "" when there is none.
func (r *CredentialRepository) Load(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM credentials WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query credential: %w", err)
	}
	return token, nil
}

// Save replaces the stored token.
func (r *CredentialRepository) Save(ctx context.Context, token string) error {
	query := `
		INSERT INTO credentials (id, token, created_at, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, token, now, now); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear erases the stored token. Clearing an empty store is not an error.
func (r *CredentialRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// UpdatedAt reports when the token was last saved.
func (r *CredentialRepository) UpdatedAt(ctx context.Context) (time.Time, bool, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM credentials WHERE id = 1`).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query credential: %w", err)
	}
	return updatedAt, true, nil
}
