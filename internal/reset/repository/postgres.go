package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"authgate/internal/dbx"
	"authgate/internal/reset/domain"
)

// PostgresRepository persists password-reset records via dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a reset repository bound to db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new reset record. Returns ErrDuplicateHash when the token
// hash collides with an existing row.
func (r *PostgresRepository) Create(ctx context.Context, rec *domain.ResetRecord) error {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.TokenHash, rec.Used, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return ErrDuplicateHash
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByTokenHash returns the reset record for the given token hash, or nil
// if not found.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.ResetRecord, error) {
	query := `
		SELECT id, user_id, token_hash, used, expires_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`
	rec := &domain.ResetRecord{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&rec.ID, &rec.UserID, &rec.TokenHash, &rec.Used, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// MarkUsed flips used to true. The conditional update serializes concurrent
// redeemers: exactly one caller observes true.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	query := `UPDATE password_reset_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
