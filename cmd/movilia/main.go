// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Movilia server. It loads
// configuration, connects to the backing services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"movilia/internal/cache"
	"movilia/internal/config"
	"movilia/internal/database"
	"movilia/internal/handlers"
	"movilia/internal/imaging"
	"movilia/internal/middleware"
	"movilia/internal/render"
	"movilia/internal/router"
	"movilia/internal/session"
	"movilia/internal/storage"
	"movilia/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed baseline data (no-op when it already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// HTML template renderer. In dev mode templates load assets from CDN;
	// in production they use files embedded in the binary.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Image processing worker pool for upload variants.
	imaging.Startup(runtime.NumCPU())
	defer imaging.Shutdown()

	// Data stores.
	userStore := store.NewUserStore(db)
	callStore := store.NewCallStore(db)
	phaseStore := store.NewPhaseStore(db)
	resStore := store.NewResolutionStore(db)
	appStore := store.NewApplicationStore(db)
	eventStore := store.NewEventStore(db)
	trStore := store.NewTranslationStore(db)
	programStore := store.NewProgramStore(db)
	yearStore := store.NewAcademicYearStore(db)
	langStore := store.NewLanguageStore(db)
	settingStore := store.NewSettingStore(db)
	newsStore := store.NewNewsStore(db)
	docStore := store.NewDocumentStore(db)
	mediaStore := store.NewMediaStore(db)
	activityStore := store.NewActivityStore(db)
	cacheLogStore := store.NewCacheInvalidationStore(db)

	// S3-compatible object storage (optional — the app works without it,
	// with uploads and downloads disabled).
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3BucketPublic, cfg.S3BucketPrivate, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured — media uploads disabled")
	}

	// Full-page HTML cache in Valkey for the public site.
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// Handler groups.
	adminHandlers := handlers.NewAdmin(
		renderer, sessionStore, userStore,
		callStore, phaseStore, resStore, appStore,
		eventStore, trStore,
		programStore, yearStore, langStore, settingStore,
		newsStore, docStore, mediaStore,
		activityStore, storageClient, pageCache, cacheLogStore,
	)
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore)
	publicHandlers := handlers.NewPublic(
		renderer, callStore, phaseStore, resStore, eventStore,
		newsStore, docStore, mediaStore, trStore, langStore,
		settingStore, storageClient, pageCache,
	)

	// Login throttling, tunable through LOGIN_RATE_LIMIT / LOGIN_RATE_WINDOW_SECONDS.
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	defer loginLimiter.Stop()

	// Chi router with all middleware and routes.
	r := router.New(sessionStore, adminHandlers, authHandlers, publicHandlers, secureCookies, loginLimiter)

	// WriteTimeout must accommodate spreadsheet imports and media uploads.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
