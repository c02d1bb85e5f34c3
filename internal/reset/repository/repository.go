package repository

import (
	"context"
	"errors"

	"authgate/internal/reset/domain"
)

// ErrDuplicateHash is returned when a reset record with the same token hash
// already exists; treated as a fatal integrity violation.
var ErrDuplicateHash = errors.New("reset token hash already exists")

// Repository defines persistence for password-reset records.
type Repository interface {
	Create(ctx context.Context, rec *domain.ResetRecord) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.ResetRecord, error)

	// MarkUsed flips used to true and reports whether this call performed
	// the transition. A false result means another redeemer got there first.
	MarkUsed(ctx context.Context, id string) (bool, error)
}
