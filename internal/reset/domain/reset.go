package domain

import "time"

// ResetRecord is a single-use password-reset grant, keyed by the SHA-256
// hash of its secret. Redemption is a one-way transition of Used.
type ResetRecord struct {
	ID        string
	UserID    string
	TokenHash string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Redeemable reports whether the record can still be redeemed at the given
// instant: unused and not past expiry.
func (r *ResetRecord) Redeemable(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}
