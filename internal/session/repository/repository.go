package repository

import (
	"context"
	"errors"

	"authgate/internal/session/domain"
)

// ErrDuplicateHash is returned when a session with the same token hash
// already exists. A random-token collision is an integrity violation, not a
// retryable condition.
var ErrDuplicateHash = errors.New("session token hash already exists")

// Repository defines persistence for refresh sessions.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
}
