// Package main is the entry point for the newsroom API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsroom/internal/audit"
	"newsroom/internal/cache"
	"newsroom/internal/config"
	"newsroom/internal/database"
	"newsroom/internal/handlers"
	"newsroom/internal/lifecycle"
	"newsroom/internal/middleware"
	"newsroom/internal/router"
	"newsroom/internal/session"
	"newsroom/internal/storage"
	"newsroom/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// JSON logs in production, readable text while developing.
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(context.Background(), cfg.DSN(), database.PoolOptions{})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey holds cached responses and revoked tokens.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	tokens, err := session.NewStore(valkeyClient, session.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	if err != nil {
		slog.Error("failed to initialize token store", "error", err)
		os.Exit(1)
	}

	// Object storage is optional; uploads answer 503 without it.
	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	var files handlers.FileStore
	if storageClient != nil {
		files = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, uploads disabled")
	}

	articleStore := store.NewArticleStore(db)
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	mediaStore := store.NewMediaStore(db)
	auditStore := store.NewAuditLogStore(db)

	auditLog := audit.NewLogger(auditStore)
	respCache := cache.NewResponseCache(valkeyClient, cache.DefaultTTL)

	var limiter, authLimiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer limiter.Stop()
	}
	if cfg.AuthRateLimit > 0 {
		authLimiter = middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute)
		defer authLimiter.Stop()
	}

	r := router.New(router.Deps{
		Verifier:    tokens,
		Users:       userStore,
		CORS:        middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins, AllowCredentials: true},
		Limiter:     limiter,
		AuthLimiter: authLimiter,
		Articles:    handlers.NewArticles(articleStore, lifecycle.NewArticles(articleStore), auditLog, respCache, files),
		Auth:        handlers.NewAuth(userStore, tokens, auditLog),
		Categories:  handlers.NewCategories(categoryStore, auditLog, respCache),
		Uploads:     handlers.NewUploads(mediaStore, files, auditLog, respCache),
		AuditLogs:   handlers.NewAuditLogs(auditStore),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
