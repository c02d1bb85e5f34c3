package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "s3cr3t")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "authgate" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "authgate")
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", cfg.RefreshTTL())
	}
	if cfg.ResetTokenTTL() != 30*time.Minute {
		t.Errorf("ResetTokenTTL = %v, want 30m", cfg.ResetTokenTTL())
	}
	if cfg.LoginMaxAttempts != 10 {
		t.Errorf("LoginMaxAttempts = %d, want 10", cfg.LoginMaxAttempts)
	}
	if cfg.ResetTokenReturnToClient {
		t.Error("ResetTokenReturnToClient should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "s3cr3t")
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("JWT_ACCESS_TTL", "30m")
	os.Setenv("LOGIN_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.AccessTTL() != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", cfg.AccessTTL())
	}
	if cfg.LoginMaxAttempts != 3 {
		t.Errorf("LoginMaxAttempts = %d, want 3", cfg.LoginMaxAttempts)
	}
}

func TestLoad_JWTSecretRequired(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without JWT_SECRET")
	}
}

func TestLoad_ResetReturnToClientProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "s3cr3t")
	os.Setenv("RESET_TOKEN_RETURN_TO_CLIENT", "true")
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject the dev reset flag in production")
	}

	os.Setenv("APP_ENV", "development")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ResetTokenReturnToClient {
		t.Error("ResetTokenReturnToClient should be true in development")
	}
}

func TestDurations_InvalidFallBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "s3cr3t")
	os.Setenv("JWT_ACCESS_TTL", "invalid")
	os.Setenv("JWT_REFRESH_TTL", "-1h")
	os.Setenv("RESET_TOKEN_TTL", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want fallback 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want fallback 168h", cfg.RefreshTTL())
	}
	if cfg.ResetTokenTTL() != 30*time.Minute {
		t.Errorf("ResetTokenTTL = %v, want fallback 30m", cfg.ResetTokenTTL())
	}
}
