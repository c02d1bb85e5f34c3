// Package service implements the credential lifecycle: login, token refresh,
// logout, and the single-use password-reset flow.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"authgate/internal/logging"
	"authgate/internal/repomanager"
	resetdomain "authgate/internal/reset/domain"
	"authgate/internal/security"
	sessiondomain "authgate/internal/session/domain"
)

// Sentinel errors for the auth service; the HTTP handler maps them to codes.
// ErrUnauthorized deliberately covers every token-validity failure (bad
// signature, wrong kind, expired, revoked, used, not found) so callers cannot
// enumerate which applied.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("invalid or expired token")
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken     security.AccessToken
	RefreshToken    security.RefreshToken
	AccessExpiresAt time.Time
}

// AuthService coordinates the hasher, token provider, and ledgers. All
// collaborators and the clock are injected at construction.
type AuthService struct {
	repos    repomanager.Repos
	tx       repomanager.TxManager
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	resetTTL time.Duration
	log      logging.Logger
	now      func() time.Time

	// decoyDigest is verified against when the email has no account, so a
	// login probe costs the same whether or not the account exists.
	decoyDigest string
}

// NewAuthService returns an AuthService. now may be nil to use the wall
// clock.
func NewAuthService(
	repos repomanager.Repos,
	tx repomanager.TxManager,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	resetTTL time.Duration,
	log logging.Logger,
	now func() time.Time,
) (*AuthService, error) {
	if now == nil {
		now = time.Now
	}
	decoy, err := hasher.Hash(ulid.Make().String())
	if err != nil {
		return nil, err
	}
	return &AuthService{
		repos:       repos,
		tx:          tx,
		hasher:      hasher,
		tokens:      tokens,
		resetTTL:    resetTTL,
		log:         log,
		now:         now,
		decoyDigest: decoy,
	}, nil
}

// Login authenticates email/password, persists a new refresh session, and
// returns both tokens. A missing account and a wrong password produce the
// same error; the active flag is checked only after the password verified so
// account status is never inferable from an unauthenticated guess.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(password, s.decoyDigest)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}

	access, _, accessExp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, _, refreshExp, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		TokenHash: security.HashSecret(string(refresh)),
		ExpiresAt: refreshExp,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repos.Sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: accessExp,
	}, nil
}

// Refresh validates the refresh token against both the codec and the session
// ledger and issues a new access token. The refresh token and its session
// row are left as they are; there is no rotation.
func (s *AuthService) Refresh(ctx context.Context, refresh security.RefreshToken) (security.AccessToken, time.Time, error) {
	if _, err := s.tokens.ValidateRefresh(refresh); err != nil {
		return "", time.Time{}, ErrUnauthorized
	}
	sess, err := s.repos.Sessions.GetByTokenHash(ctx, security.HashSecret(string(refresh)))
	if err != nil {
		return "", time.Time{}, err
	}
	// The stored expiry backs up the codec's embedded one.
	if sess == nil || !sess.Valid(s.now().UTC()) {
		return "", time.Time{}, ErrUnauthorized
	}
	user, err := s.repos.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil {
		return "", time.Time{}, ErrUserNotFound
	}
	if !user.Active {
		return "", time.Time{}, ErrInactiveUser
	}
	access, _, exp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	return access, exp, nil
}

// Logout revokes the session behind the refresh token. Logging out an
// already-revoked session succeeds silently; an unknown token is
// ErrUnauthorized.
func (s *AuthService) Logout(ctx context.Context, refresh security.RefreshToken) error {
	sess, err := s.repos.Sessions.GetByTokenHash(ctx, security.HashSecret(string(refresh)))
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrUnauthorized
	}
	if sess.Revoked {
		return nil
	}
	return s.repos.Sessions.Revoke(ctx, sess.ID)
}

// ForgotPassword issues a single-use reset secret for the account behind
// email. When the account is missing or inactive it returns ("", nil): the
// caller sees the same success shape either way. Only the secret's hash is
// persisted.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.Active {
		return "", nil
	}
	secret, err := security.NewSecret(32)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	rec := &resetdomain.ResetRecord{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		TokenHash: security.HashSecret(secret),
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.repos.Resets.Create(ctx, rec); err != nil {
		return "", err
	}
	return secret, nil
}

// ResetPassword redeems a reset secret: stores the new password hash,
// revokes every session of the owner, and marks the record used, all in one
// transaction. Not-found, already-used, and expired records produce the same
// ErrUnauthorized, as does a record whose owner no longer exists. When two
// redeemers race, the conditional mark-used decides; the loser's transaction
// rolls back entirely.
func (s *AuthService) ResetPassword(ctx context.Context, secret, newPassword string) error {
	rec, err := s.repos.Resets.GetByTokenHash(ctx, security.HashSecret(secret))
	if err != nil {
		return err
	}
	if rec == nil || !rec.Redeemable(s.now().UTC()) {
		return ErrUnauthorized
	}
	user, err := s.repos.Users.GetByID(ctx, rec.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthorized
	}
	// Hashing is deliberately slow; keep it outside the transaction.
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if err := r.Users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		if err := r.Sessions.RevokeAllByUser(ctx, user.ID); err != nil {
			return err
		}
		ok, err := r.Resets.MarkUsed(ctx, rec.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnauthorized
		}
		return nil
	})
}
