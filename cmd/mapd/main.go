// Package main is the entry point for the travel diary map daemon.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/travel-diary/internal/api"
	"github.com/pkordes/travel-diary/internal/config"
	"github.com/pkordes/travel-diary/internal/connectivity"
	"github.com/pkordes/travel-diary/internal/handler"
	"github.com/pkordes/travel-diary/internal/middleware"
	"github.com/pkordes/travel-diary/internal/repo"
	"github.com/pkordes/travel-diary/internal/service"
	"github.com/pkordes/travel-diary/internal/tilecache"
	"github.com/pkordes/travel-diary/internal/viewport"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Offline store ----------------------------------------------------
	// SQLite holds the offline markers and trips as JSON blobs. The file is
	// created and migrated on first start.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	db, err := repo.OpenSQLite(ctx, filepath.Join(cfg.DataDir, "travel-diary.db"))
	if err != nil {
		slog.Error("failed to open offline store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("offline store ready", "dir", cfg.DataDir)

	local := repo.NewOfflineStore(repo.NewSQLiteBlobStore(db), logger)

	// --- Backend client and connectivity ----------------------------------
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	remote := api.NewClient(cfg.APIBaseURL, httpClient, api.StaticToken(cfg.APIToken))
	if cfg.APIToken != "" {
		if userID, err := api.UserIDFromToken(cfg.APIToken); err != nil {
			slog.Warn("api token carries no user id", "error", err)
		} else {
			slog.Info("backend session", "user_id", userID)
		}
	}

	monitor := connectivity.NewMonitor(httpClient, cfg.ConnectivityProbeURL, cfg.ConnectivityInterval, logger)
	go monitor.Run(ctx)

	coord := service.NewCoordinator(monitor, remote, local, service.WithLogger(logger))

	// --- Tiles and viewport -----------------------------------------------
	fetcher := tilecache.NewHTTPFetcher(&http.Client{Timeout: cfg.RequestTimeout}, cfg.TileURLTemplate, cfg.TileUserAgent)
	tiles := tilecache.New(filepath.Join(cfg.DataDir, tilecache.DirName), fetcher, cfg.PrefetchWorkers, logger)

	commands := viewport.NewCommandLog()
	location := &viewport.LastKnownLocation{}
	view := viewport.New(commands, location, viewport.WithLogger(logger))
	defer view.Close()

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → MaxBodySize.
	// CORS runs before routing so preflight requests are answered without
	// reaching a handler.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(coord, tiles, view, location, commands, logger)
	r.Mount("/", srv.Handler())

	// --- HTTP Server ------------------------------------------------------
	// Prefetching a large region can take a while, so the write timeout is
	// longer than a single backend request.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "backend", remote.BaseURL())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
