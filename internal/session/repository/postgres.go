package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"authgate/internal/dbx"
	"authgate/internal/session/domain"
)

// PostgresRepository persists refresh sessions via dbx.DBTX, so it can be
// bound to either a connection pool or an enclosing transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a session repository bound to db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session row. Returns ErrDuplicateHash when the token
// hash collides with an existing row.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.Revoked, s.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return ErrDuplicateHash
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByTokenHash returns the session for the given token hash, or nil if not
// found.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM sessions
		WHERE token_hash = $1
	`
	s := &domain.Session{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.Revoked, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Revoke marks the session revoked. Revoking an already-revoked session is a
// no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE sessions SET revoked = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RevokeAllByUser marks every session owned by userID revoked.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	query := `UPDATE sessions SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
