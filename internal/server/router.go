// Package server assembles the gin engine: middleware chain, route groups,
// and the health endpoint.
package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	adminhandler "authgate/internal/admin/handler"
	authhandler "authgate/internal/auth/handler"
	"authgate/internal/logging"
	"authgate/internal/security"
	"authgate/internal/server/middleware"
	"authgate/internal/server/response"
	userhandler "authgate/internal/user/handler"
	userrepo "authgate/internal/user/repository"
)

// Deps carries everything the router needs.
type Deps struct {
	DB      *sql.DB
	Tokens  *security.TokenProvider
	Users   userrepo.Repository
	Auth    *authhandler.HTTPHandler
	Profile *userhandler.HTTPHandler
	Admin   *adminhandler.HTTPHandler
	Log     logging.Logger
	Tracer  trace.Tracer
	Meter   metric.Meter
	GinMode string
}

// NewRouter builds the engine with the full middleware chain and all route
// groups mounted.
func NewRouter(d Deps) *gin.Engine {
	if d.GinMode != "" {
		gin.SetMode(d.GinMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLog(d.Log),
		middleware.Telemetry(d.Tracer, d.Meter),
	)

	r.GET("/healthz", healthz(d.DB))

	api := r.Group("/api/v1")
	d.Auth.Register(api.Group("/auth"))
	d.Profile.RegisterPublic(api.Group("/users"))

	authed := api.Group("")
	authed.Use(middleware.Auth(d.Tokens, d.Users))
	d.Profile.Register(authed.Group("/users"))

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	d.Admin.Register(admin)

	return r
}

func healthz(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				response.Err(c, http.StatusServiceUnavailable, response.CodeInternal, "database unavailable")
				return
			}
		}
		response.OK(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
