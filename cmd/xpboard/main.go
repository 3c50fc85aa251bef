package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/config"
	"github.com/dukerupert/xpboard/internal/database"
	"github.com/dukerupert/xpboard/internal/logging"
	"github.com/dukerupert/xpboard/internal/media"
	"github.com/dukerupert/xpboard/internal/server"
	"github.com/dukerupert/xpboard/internal/viewcache"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional; without it every list is served from the database.
	var cache *viewcache.PageCache
	if cfg.RedisAddr != "" {
		client, err := viewcache.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("redis unavailable, view cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer client.Close()
			cache = viewcache.NewPageCache(client, cfg.CacheTTL, logger.With("component", "viewcache"))
			slog.Info("view cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	uploader := media.NewUploader(cfg.S3, cfg.MediaBaseURL, logger.With("component", "media"))
	if !uploader.Enabled() {
		slog.Info("image uploads disabled", "reason", "S3 bucket or credentials not set")
	}

	srv := server.New(server.Deps{
		DB:             db,
		Verifier:       auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Cache:          cache,
		Uploader:       uploader,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := srv.RateLimiter().Sweep(); n > 0 {
					slog.Debug("swept rate limit windows", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("xpboard starting", "addr", ":"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
