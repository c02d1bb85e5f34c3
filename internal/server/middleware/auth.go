// Package middleware holds the gin middleware chain: bearer auth, request
// logging, and telemetry.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/internal/security"
	"authgate/internal/server/response"
	"authgate/internal/user/domain"
	userrepo "authgate/internal/user/repository"
)

const currentUserKey = "currentUser"

// Auth validates the bearer access token and loads the subject's user row
// into the request context. Every failure is a plain 401; the reason is not
// surfaced.
func Auth(tokens *security.TokenProvider, users userrepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing bearer token")
			return
		}
		subject, err := tokens.ValidateAccess(security.AccessToken(raw))
		if err != nil {
			response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			return
		}
		user, err := users.GetByID(c.Request.Context(), subject)
		if err != nil {
			response.Err(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
			return
		}
		if user == nil || !user.Active {
			response.Err(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.Admin {
			response.Err(c, http.StatusForbidden, response.CodeForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by Auth, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
