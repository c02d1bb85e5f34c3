// Package handler exposes the credential lifecycle over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authgate/internal/auth/service"
	"authgate/internal/logging"
	"authgate/internal/ratelimit"
	"authgate/internal/security"
	"authgate/internal/server/response"
)

// HTTPHandler serves the /api/v1/auth routes.
type HTTPHandler struct {
	auth    *service.AuthService
	limiter *ratelimit.Limiter
	log     logging.Logger

	// returnResetSecret exposes the reset secret in the forgot-password
	// response instead of delivering it out of band. Dev environments only.
	returnResetSecret bool
}

// NewHTTPHandler returns the auth route handler. limiter may be nil to
// disable login throttling.
func NewHTTPHandler(
	auth *service.AuthService,
	limiter *ratelimit.Limiter,
	log logging.Logger,
	returnResetSecret bool,
) *HTTPHandler {
	return &HTTPHandler{
		auth:              auth,
		limiter:           limiter,
		log:               log,
		returnResetSecret: returnResetSecret,
	}
}

// Register wires the auth routes onto the group.
func (h *HTTPHandler) Register(g *gin.RouterGroup) {
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)
	g.POST("/forgot-password", h.forgotPassword)
	g.POST("/reset-password", h.resetPassword)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenPairDoc struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

func (h *HTTPHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	ip := c.ClientIP()

	if h.limiter != nil {
		if err := h.limiter.CheckLogin(ctx, req.Email, ip); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				response.Err(c, http.StatusTooManyRequests, response.CodeRateLimited, "too many login attempts")
				return
			}
			// A broken limiter store must not lock every account out.
			h.log.Warn(ctx, "login limiter unavailable", "error", err)
		}
	}

	pair, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			if h.limiter != nil {
				if lerr := h.limiter.RecordFailure(ctx, req.Email, ip); lerr != nil && !errors.Is(lerr, ratelimit.ErrRateLimited) {
					h.log.Warn(ctx, "login limiter unavailable", "error", lerr)
				}
			}
			response.Err(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "invalid email or password")
		case errors.Is(err, service.ErrInactiveUser):
			response.Err(c, http.StatusForbidden, response.CodeInactiveUser, "account is inactive")
		default:
			h.internal(c, "login", err)
		}
		return
	}
	if h.limiter != nil {
		if lerr := h.limiter.Reset(ctx, req.Email, ip); lerr != nil {
			h.log.Warn(ctx, "login limiter unavailable", "error", lerr)
		}
	}
	response.OK(c, http.StatusOK, tokenPairDoc{
		AccessToken:     string(pair.AccessToken),
		RefreshToken:    string(pair.RefreshToken),
		TokenType:       "bearer",
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type accessTokenDoc struct {
	AccessToken     string    `json:"access_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

func (h *HTTPHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	access, exp, err := h.auth.Refresh(c.Request.Context(), security.RefreshToken(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
		case errors.Is(err, service.ErrUserNotFound):
			response.Err(c, http.StatusNotFound, response.CodeNotFound, "user not found")
		case errors.Is(err, service.ErrInactiveUser):
			response.Err(c, http.StatusForbidden, response.CodeInactiveUser, "account is inactive")
		default:
			h.internal(c, "refresh", err)
		}
		return
	}
	response.OK(c, http.StatusOK, accessTokenDoc{
		AccessToken:     string(access),
		TokenType:       "bearer",
		AccessExpiresAt: exp,
	})
}

func (h *HTTPHandler) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	err := h.auth.Logout(c.Request.Context(), security.RefreshToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			return
		}
		h.internal(c, "logout", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"logged_out": true})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *HTTPHandler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	secret, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.internal(c, "forgot password", err)
		return
	}
	// The response shape is identical whether or not the account exists.
	data := gin.H{"requested": true}
	if h.returnResetSecret && secret != "" {
		data["reset_token"] = secret
	}
	response.OK(c, http.StatusOK, data)
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

func (h *HTTPHandler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			return
		}
		h.internal(c, "reset password", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"reset": true})
}

func (h *HTTPHandler) internal(c *gin.Context, op string, err error) {
	h.log.Error(c.Request.Context(), op+" failed", "error", err)
	response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
}
