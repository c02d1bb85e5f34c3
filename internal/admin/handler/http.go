// Package handler exposes the admin user-management routes.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"authgate/internal/logging"
	"authgate/internal/server/response"
	"authgate/internal/user/domain"
	"authgate/internal/user/service"
)

// HTTPHandler serves the /api/admin routes. The router guards the group with
// the admin middleware.
type HTTPHandler struct {
	users *service.UserService
	log   logging.Logger
}

// NewHTTPHandler returns the admin route handler.
func NewHTTPHandler(users *service.UserService, log logging.Logger) *HTTPHandler {
	return &HTTPHandler{users: users, log: log}
}

// Register wires the admin routes onto the group.
func (h *HTTPHandler) Register(g *gin.RouterGroup) {
	g.GET("/users", h.listUsers)
	g.GET("/users/:id", h.getUser)
	g.POST("/users/:id/deactivate", h.deactivateUser)
	g.POST("/users/:id/activate", h.activateUser)
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

func (h *HTTPHandler) listUsers(c *gin.Context) {
	limit := queryInt32(c, "limit", 50)
	offset := queryInt32(c, "offset", 0)

	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error(c.Request.Context(), "list users failed", "error", err)
		response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
		return
	}
	docs := make([]userDoc, 0, len(users))
	for _, u := range users {
		docs = append(docs, toUserDoc(u))
	}
	response.OK(c, http.StatusOK, gin.H{"users": docs})
}

func (h *HTTPHandler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Err(c, http.StatusNotFound, response.CodeNotFound, "user not found")
			return
		}
		h.log.Error(c.Request.Context(), "get user failed", "error", err)
		response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
		return
	}
	response.OK(c, http.StatusOK, toUserDoc(user))
}

func (h *HTTPHandler) deactivateUser(c *gin.Context) {
	if err := h.users.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Err(c, http.StatusNotFound, response.CodeNotFound, "user not found")
			return
		}
		h.log.Error(c.Request.Context(), "deactivate user failed", "error", err)
		response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
		return
	}
	response.OK(c, http.StatusOK, gin.H{"deactivated": true})
}

func (h *HTTPHandler) activateUser(c *gin.Context) {
	if err := h.users.Activate(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Err(c, http.StatusNotFound, response.CodeNotFound, "user not found")
			return
		}
		h.log.Error(c.Request.Context(), "activate user failed", "error", err)
		response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
		return
	}
	response.OK(c, http.StatusOK, gin.H{"activated": true})
}

func queryInt32(c *gin.Context, key string, fallback int32) int32 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
