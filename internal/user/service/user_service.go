// Package service implements account management: registration, profile
// reads and updates, password change, and administrative controls.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"authgate/internal/logging"
	"authgate/internal/repomanager"
	"authgate/internal/security"
	"authgate/internal/user/domain"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("current password is incorrect")
)

// UserService manages user accounts. Password material only ever passes
// through the hasher; the service stores and returns digests.
type UserService struct {
	repos  repomanager.Repos
	tx     repomanager.TxManager
	hasher *security.Hasher
	log    logging.Logger
	now    func() time.Time
}

// NewUserService returns a UserService. now may be nil to use the wall clock.
func NewUserService(
	repos repomanager.Repos,
	tx repomanager.TxManager,
	hasher *security.Hasher,
	log logging.Logger,
	now func() time.Time,
) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{repos: repos, tx: tx, hasher: hasher, log: log, now: now}
}

// Register creates an active, non-admin account. Email is normalized to
// lowercase before the uniqueness check so the login lookup always matches.
func (s *UserService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if existing, err := s.repos.Users.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := s.repos.Users.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &domain.User{
		ID:           ulid.Make().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Get returns the user by id or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateUsername changes the caller's username after a uniqueness check.
// Re-submitting the current username is a no-op.
func (s *UserService) UpdateUsername(ctx context.Context, id, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Username == username {
		return user, nil
	}
	if existing, err := s.repos.Users.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if err := s.repos.Users.UpdateUsername(ctx, id, username); err != nil {
		return nil, err
	}
	user.Username = username
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
// Other sessions stay valid; a password change is not a credential
// compromise signal the way a reset is.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.repos.Users.UpdatePasswordHash(ctx, id, hash)
}

// List returns a page of users, newest first.
func (s *UserService) List(ctx context.Context, limit, offset int32) ([]*domain.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Users.List(ctx, limit, offset)
}

// Deactivate flips the account inactive and revokes every refresh session in
// the same transaction, so a deactivated user is locked out immediately, not
// at access-token expiry.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if err := r.Users.SetActive(ctx, id, false); err != nil {
			return err
		}
		return r.Sessions.RevokeAllByUser(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "user deactivated", "user_id", id)
	return nil
}

// Activate re-enables a deactivated account. Sessions revoked at
// deactivation stay revoked; the user must log in again.
func (s *UserService) Activate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repos.Users.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.log.Info(ctx, "user activated", "user_id", id)
	return nil
}
