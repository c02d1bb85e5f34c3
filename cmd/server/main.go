package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	adminhandler "authgate/internal/admin/handler"
	authhandler "authgate/internal/auth/handler"
	authservice "authgate/internal/auth/service"
	"authgate/internal/config"
	"authgate/internal/db"
	"authgate/internal/logging"
	"authgate/internal/ratelimit"
	"authgate/internal/repomanager"
	"authgate/internal/security"
	"authgate/internal/server"
	"authgate/internal/telemetry/otel"
	userhandler "authgate/internal/user/handler"
	userservice "authgate/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewDefault(logLevel(cfg.LogLevel))
	ctx := context.Background()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "authgate", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		limiter = ratelimit.New(rdb, ratelimit.Config{
			EnableIPThrottle: true,
			MaxLoginAttempts: cfg.LoginMaxAttempts,
			LoginCooldown:    cfg.LoginCooldown(),
		})
	}

	hasher := security.NewHasher()
	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTSecret), cfg.JWTIssuer,
		cfg.AccessTTL(), cfg.RefreshTTL(), nil,
	)

	repos := repomanager.New(database)
	txm := repomanager.NewPostgresTxManager(database)

	authSvc, err := authservice.NewAuthService(repos, txm, hasher, tokens, cfg.ResetTokenTTL(), logger, nil)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	userSvc := userservice.NewUserService(repos, txm, hasher, logger, nil)

	ginMode := ""
	if cfg.Env == "production" {
		ginMode = gin.ReleaseMode
	}
	router := server.NewRouter(server.Deps{
		DB:      database,
		Tokens:  tokens,
		Users:   repos.Users,
		Auth:    authhandler.NewHTTPHandler(authSvc, limiter, logger, cfg.ResetTokenReturnToClient),
		Profile: userhandler.NewHTTPHandler(userSvc, logger),
		Admin:   adminhandler.NewHTTPHandler(userSvc, logger),
		Log:     logger,
		Tracer:  providers.TracerProvider.Tracer("authgate/server"),
		Meter:   providers.MeterProvider.Meter("authgate/server"),
		GinMode: ginMode,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown", "error", err)
	}
	logger.Info(ctx, "http server stopped")
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
