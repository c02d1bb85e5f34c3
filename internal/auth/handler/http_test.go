package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"authgate/internal/auth/service"
	"authgate/internal/logging"
	"authgate/internal/repomanager"
	resetdomain "authgate/internal/reset/domain"
	"authgate/internal/security"
	sessiondomain "authgate/internal/session/domain"
	userdomain "authgate/internal/user/domain"
	userhandler "authgate/internal/user/handler"
	userservice "authgate/internal/user/service"
)

type memUserRepo struct {
	byID map[string]*userdomain.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.byID[u.ID] = u
	return nil
}

func (r *memUserRepo) UpdateUsername(ctx context.Context, id, username string) error {
	r.byID[id].Username = username
	return nil
}

func (r *memUserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	r.byID[id].PasswordHash = hash
	return nil
}

func (r *memUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.byID[id].Active = active
	return nil
}

func (r *memUserRepo) List(ctx context.Context, limit, offset int32) ([]*userdomain.User, error) {
	out := make([]*userdomain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

type memSessionRepo struct {
	byHash map[string]*sessiondomain.Session
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.byHash[s.TokenHash] = s
	return nil
}

func (r *memSessionRepo) GetByTokenHash(ctx context.Context, h string) (*sessiondomain.Session, error) {
	return r.byHash[h], nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	for _, s := range r.byHash {
		if s.ID == id {
			s.Revoked = true
		}
	}
	return nil
}

func (r *memSessionRepo) RevokeAllByUser(ctx context.Context, userID string) error {
	for _, s := range r.byHash {
		if s.UserID == userID {
			s.Revoked = true
		}
	}
	return nil
}

type memResetRepo struct {
	byHash map[string]*resetdomain.ResetRecord
}

func (r *memResetRepo) Create(ctx context.Context, rec *resetdomain.ResetRecord) error {
	r.byHash[rec.TokenHash] = rec
	return nil
}

func (r *memResetRepo) GetByTokenHash(ctx context.Context, h string) (*resetdomain.ResetRecord, error) {
	return r.byHash[h], nil
}

func (r *memResetRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	for _, rec := range r.byHash {
		if rec.ID == id && !rec.Used {
			rec.Used = true
			return true, nil
		}
	}
	return false, nil
}

type memTxManager struct {
	repos repomanager.Repos
}

func (m *memTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, r repomanager.Repos) error) error {
	return fn(ctx, m.repos)
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPI(t *testing.T, returnResetSecret bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher := security.NewHasher()
	hasher.Memory = 8
	hasher.Time = 1
	hasher.Threads = 1
	tokens := security.NewTokenProvider([]byte("test-secret"), "authgate", 15*time.Minute, time.Hour, nil)
	logger := logging.NewDefault(slog.LevelError)

	repos := repomanager.Repos{
		Users:    &memUserRepo{byID: map[string]*userdomain.User{}},
		Sessions: &memSessionRepo{byHash: map[string]*sessiondomain.Session{}},
		Resets:   &memResetRepo{byHash: map[string]*resetdomain.ResetRecord{}},
	}
	txm := &memTxManager{repos: repos}

	authSvc, err := service.NewAuthService(repos, txm, hasher, tokens, 30*time.Minute, logger, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	userSvc := userservice.NewUserService(repos, txm, hasher, logger, nil)

	r := gin.New()
	NewHTTPHandler(authSvc, nil, logger, returnResetSecret).Register(r.Group("/api/v1/auth"))
	userhandler.NewHTTPHandler(userSvc, logger).RegisterPublic(r.Group("/api/v1/users"))
	return r
}

func post(r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, envelope) {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestRegisterAndLoginFlow(t *testing.T) {
	r := newAPI(t, false)

	w, env := post(r, "/api/v1/users", gin.H{
		"email": "a@x.com", "username": "alice", "password": "password1",
	})
	if w.Code != http.StatusCreated || !env.Success {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	w, env = post(r, "/api/v1/users", gin.H{
		"email": "a@x.com", "username": "alice2", "password": "password1",
	})
	if w.Code != http.StatusConflict || env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Fatalf("duplicate register: %d %s", w.Code, w.Body.String())
	}

	w, env = post(r, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "password1"})
	access, _ := env.Data["access_token"].(string)
	refresh, _ := env.Data["refresh_token"].(string)
	if w.Code != http.StatusOK || access == "" || refresh == "" {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	w, env = post(r, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized || env.Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("bad login: %d %s", w.Code, w.Body.String())
	}
	// Unknown email gets the identical status and code.
	w, env = post(r, "/api/v1/auth/login", gin.H{"email": "ghost@x.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized || env.Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("ghost login: %d %s", w.Code, w.Body.String())
	}

	w, env = post(r, "/api/v1/auth/refresh", gin.H{"refresh_token": refresh})
	newAccess, _ := env.Data["access_token"].(string)
	if w.Code != http.StatusOK || newAccess == "" {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}

	w, _ = post(r, "/api/v1/auth/logout", gin.H{"refresh_token": refresh})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}
	w, env = post(r, "/api/v1/auth/refresh", gin.H{"refresh_token": refresh})
	if w.Code != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("refresh after logout: %d %s", w.Code, w.Body.String())
	}
}

func TestValidationErrors(t *testing.T) {
	r := newAPI(t, false)

	w, env := post(r, "/api/v1/users", gin.H{
		"email": "not-an-email", "username": "alice", "password": "password1",
	})
	if w.Code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("bad email: %d %s", w.Code, w.Body.String())
	}

	w, env = post(r, "/api/v1/users", gin.H{
		"email": "a@x.com", "username": "alice", "password": "short",
	})
	if w.Code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("short password: %d %s", w.Code, w.Body.String())
	}
}

func TestForgotResetFlow(t *testing.T) {
	r := newAPI(t, true)

	post(r, "/api/v1/users", gin.H{
		"email": "a@x.com", "username": "alice", "password": "password1",
	})

	w, env := post(r, "/api/v1/auth/forgot-password", gin.H{"email": "a@x.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("forgot: %d %s", w.Code, w.Body.String())
	}
	secret, _ := env.Data["reset_token"].(string)
	if secret == "" {
		t.Fatal("dev mode should return the reset secret")
	}

	// Missing accounts produce an identical success shape, minus the secret.
	w, env = post(r, "/api/v1/auth/forgot-password", gin.H{"email": "ghost@x.com"})
	if w.Code != http.StatusOK || env.Data["requested"] != true {
		t.Fatalf("ghost forgot: %d %s", w.Code, w.Body.String())
	}
	if _, ok := env.Data["reset_token"]; ok {
		t.Fatal("ghost forgot must not carry a secret")
	}

	w, _ = post(r, "/api/v1/auth/reset-password", gin.H{"token": secret, "new_password": "newpass123"})
	if w.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}
	w, env = post(r, "/api/v1/auth/reset-password", gin.H{"token": secret, "new_password": "again12345"})
	if w.Code != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("second reset: %d %s", w.Code, w.Body.String())
	}

	w, _ = post(r, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "newpass123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login with new password: %d %s", w.Code, w.Body.String())
	}
}

func TestForgotPasswordHidesSecretOutsideDevMode(t *testing.T) {
	r := newAPI(t, false)

	post(r, "/api/v1/users", gin.H{
		"email": "a@x.com", "username": "alice", "password": "password1",
	})
	w, env := post(r, "/api/v1/auth/forgot-password", gin.H{"email": "a@x.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("forgot: %d %s", w.Code, w.Body.String())
	}
	if _, ok := env.Data["reset_token"]; ok {
		t.Fatal("secret must not be returned when dev mode is off")
	}
}
