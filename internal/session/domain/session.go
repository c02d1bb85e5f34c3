package domain

import "time"

// Session is one outstanding refresh session, keyed by the SHA-256 hash of
// its refresh token. Rows are revoked, never deleted, by this service.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Valid reports whether the session can still back a refresh at the given
// instant: not revoked and not past its stored expiry.
func (s *Session) Valid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
