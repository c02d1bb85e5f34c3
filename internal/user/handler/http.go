// Package handler exposes the authenticated profile routes.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authgate/internal/logging"
	"authgate/internal/server/middleware"
	"authgate/internal/server/response"
	"authgate/internal/user/domain"
	"authgate/internal/user/service"
)

// HTTPHandler serves the /api/users routes.
type HTTPHandler struct {
	users *service.UserService
	log   logging.Logger
}

// NewHTTPHandler returns the profile route handler.
func NewHTTPHandler(users *service.UserService, log logging.Logger) *HTTPHandler {
	return &HTTPHandler{users: users, log: log}
}

// RegisterPublic wires the unauthenticated routes (account creation) onto
// the group.
func (h *HTTPHandler) RegisterPublic(g *gin.RouterGroup) {
	g.POST("", h.create)
}

// Register wires the profile routes onto the authenticated group.
func (h *HTTPHandler) Register(g *gin.RouterGroup) {
	g.GET("/me", h.me)
	g.PATCH("/me", h.updateProfile)
	g.POST("/me/password", h.changePassword)
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h *HTTPHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	user, err := h.users.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			response.Err(c, http.StatusConflict, response.CodeConflict, "email is already registered")
		case errors.Is(err, service.ErrUsernameTaken):
			response.Err(c, http.StatusConflict, response.CodeConflict, "username is already taken")
		default:
			h.log.Error(c.Request.Context(), "register failed", "error", err)
			response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
		}
		return
	}
	response.OK(c, http.StatusCreated, toUserDoc(user))
}

type userDoc struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Active    bool      `json:"active"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Active:    u.Active,
		Admin:     u.Admin,
		CreatedAt: u.CreatedAt,
	}
}

func (h *HTTPHandler) me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
		return
	}
	response.OK(c, http.StatusOK, toUserDoc(user))
}

type updateProfileRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
}

func (h *HTTPHandler) updateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	updated, err := h.users.UpdateUsername(c.Request.Context(), user.ID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			response.Err(c, http.StatusConflict, response.CodeConflict, "username is already taken")
		case errors.Is(err, service.ErrUserNotFound):
			response.Err(c, http.StatusNotFound, response.CodeNotFound, "user not found")
		default:
			h.log.Error(c.Request.Context(), "update profile failed", "error", err)
			response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
		}
		return
	}
	response.OK(c, http.StatusOK, toUserDoc(updated))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

func (h *HTTPHandler) changePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return
	}
	err := h.users.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Err(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "current password is incorrect")
		case errors.Is(err, service.ErrUserNotFound):
			response.Err(c, http.StatusNotFound, response.CodeNotFound, "user not found")
		default:
			h.log.Error(c.Request.Context(), "change password failed", "error", err)
			response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
		}
		return
	}
	response.OK(c, http.StatusOK, gin.H{"changed": true})
}
