package repository

import (
	"context"

	"authgate/internal/user/domain"
)

// Repository defines persistence for users. Lookup methods return (nil, nil)
// when no row matches; errors are database failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateUsername(ctx context.Context, id, username string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, limit, offset int32) ([]*domain.User, error)
}
