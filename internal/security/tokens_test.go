package security

import (
	"errors"
	"testing"
	"time"
)

func newTestProvider(now func() time.Time) *TokenProvider {
	return NewTokenProvider([]byte("test-secret"), "authgate", 15*time.Minute, 168*time.Hour, now)
}

func TestTokenProvider_RoundTrip(t *testing.T) {
	p := newTestProvider(nil)

	access, jti, exp, err := p.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if jti == "" {
		t.Error("jti should not be empty")
	}
	if !exp.After(time.Now()) {
		t.Error("expiry should be in the future")
	}
	got, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if got != "user-1" {
		t.Errorf("subject want user-1, got %q", got)
	}

	refresh, _, _, err := p.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if got, err := p.ValidateRefresh(refresh); err != nil || got != "user-1" {
		t.Fatalf("ValidateRefresh: got (%q, %v)", got, err)
	}
}

func TestTokenProvider_UniqueJTI(t *testing.T) {
	p := newTestProvider(nil)
	_, a, _, _ := p.IssueAccess("user-1")
	_, b, _, _ := p.IssueAccess("user-1")
	if a == b {
		t.Error("two issued tokens should carry distinct jtis")
	}
}

func TestTokenProvider_WrongKind(t *testing.T) {
	p := newTestProvider(nil)

	refresh, _, _, _ := p.IssueRefresh("user-1")
	if _, err := p.Validate(string(refresh), KindAccess); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("refresh validated as access: want ErrWrongTokenKind, got %v", err)
	}
	access, _, _, _ := p.IssueAccess("user-1")
	if _, err := p.Validate(string(access), KindRefresh); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("access validated as refresh: want ErrWrongTokenKind, got %v", err)
	}
}

func TestTokenProvider_TamperedSignature(t *testing.T) {
	p := newTestProvider(nil)
	other := NewTokenProvider([]byte("other-secret"), "authgate", 15*time.Minute, 168*time.Hour, nil)

	access, _, _, _ := other.IssueAccess("user-1")
	if _, err := p.ValidateAccess(access); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("foreign signature: want ErrInvalidSignature, got %v", err)
	}
	if _, err := p.Validate("not-a-token", KindAccess); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("garbage input: want ErrInvalidSignature, got %v", err)
	}
	if _, err := p.Validate("", KindAccess); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("empty input: want ErrInvalidSignature, got %v", err)
	}
}

func TestTokenProvider_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	p := newTestProvider(func() time.Time { return current })

	access, _, exp, err := p.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	// One instant before expiry the token is still good.
	current = exp.Add(-time.Second)
	if _, err := p.ValidateAccess(access); err != nil {
		t.Fatalf("just before expiry: %v", err)
	}

	// At the exact expiry instant the token is already expired.
	current = exp
	if _, err := p.ValidateAccess(access); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("at expiry instant: want ErrTokenExpired, got %v", err)
	}

	current = exp.Add(time.Hour)
	if _, err := p.ValidateAccess(access); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("after expiry: want ErrTokenExpired, got %v", err)
	}
}

func TestTokenProvider_ExpiredWrongKind(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	p := newTestProvider(func() time.Time { return current })

	access, _, exp, _ := p.IssueAccess("user-1")
	current = exp.Add(time.Minute)
	if _, err := p.Validate(string(access), KindRefresh); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("expired access as refresh: want ErrWrongTokenKind, got %v", err)
	}
}

func TestTokenProvider_MissingSubject(t *testing.T) {
	p := newTestProvider(nil)
	access, _, _, err := p.IssueAccess("")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(access); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("empty subject: want ErrMissingSubject, got %v", err)
	}
}
