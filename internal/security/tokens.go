package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens at the claim level.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// AccessToken and RefreshToken are distinct types so the two cannot be
// swapped at a call site; the runtime kind claim is checked independently.
type (
	AccessToken  string
	RefreshToken string
)

// Validation failures, ordered by check: signature, kind, expiry, subject.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrWrongTokenKind   = errors.New("wrong token kind")
	ErrTokenExpired     = errors.New("token expired")
	ErrMissingSubject   = errors.New("token subject missing")
)

// Claims carries the signed token payload: sub, iat, exp, jti plus the kind.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"kind"`
}

// TokenProvider issues and validates HS256-signed bearer tokens. The signing
// secret and clock are injected at construction; there is no ambient state.
type TokenProvider struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. now may be
// nil, in which case the wall clock is used.
func NewTokenProvider(secret []byte, issuer string, accessTTL, refreshTTL time.Duration, now func() time.Time) *TokenProvider {
	if now == nil {
		now = time.Now
	}
	return &TokenProvider{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// IssueAccess issues a short-lived access token for userID. Returns the
// encoded token, its jti, and its expiry.
func (p *TokenProvider) IssueAccess(userID string) (AccessToken, string, time.Time, error) {
	tok, jti, exp, err := p.issue(userID, KindAccess, p.accessTTL)
	return AccessToken(tok), jti, exp, err
}

// IssueRefresh issues a long-lived refresh token for userID. Returns the
// encoded token, its jti, and its expiry.
func (p *TokenProvider) IssueRefresh(userID string) (RefreshToken, string, time.Time, error) {
	tok, jti, exp, err := p.issue(userID, KindRefresh, p.refreshTTL)
	return RefreshToken(tok), jti, exp, err
}

func (p *TokenProvider) issue(userID string, kind Kind, ttl time.Duration) (string, string, time.Time, error) {
	jti := uuid.NewString()
	now := p.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return tok, jti, exp, nil
}

// Validate verifies the token and returns its subject. Checks run in a fixed
// order: signature, kind, expiry, subject. Expiry is strict: a token
// presented at its exact expiry instant is already expired. Malformed input
// of any shape maps to ErrInvalidSignature; nothing about the failing byte is
// exposed.
func (p *TokenProvider) Validate(token string, kind Kind) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidSignature
			}
			return p.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return p.now().UTC() }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// The signature was still verified when the parser reports only
		// expiry; a kind mismatch outranks expiry so a refresh token used as
		// access never reads as merely expired.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			if claims.Kind != kind {
				return "", ErrWrongTokenKind
			}
			return "", ErrTokenExpired
		}
		return "", ErrInvalidSignature
	}
	if !parsed.Valid {
		return "", ErrInvalidSignature
	}
	if claims.Kind != kind {
		return "", ErrWrongTokenKind
	}
	if claims.ExpiresAt == nil || !p.now().UTC().Before(claims.ExpiresAt.Time) {
		return "", ErrTokenExpired
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// ValidateAccess validates tok as an access token and returns the user id.
func (p *TokenProvider) ValidateAccess(tok AccessToken) (string, error) {
	return p.Validate(string(tok), KindAccess)
}

// ValidateRefresh validates tok as a refresh token and returns the user id.
func (p *TokenProvider) ValidateRefresh(tok RefreshToken) (string, error) {
	return p.Validate(string(tok), KindRefresh)
}
