package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "assetrent-backend/internal/api/http"
	"assetrent-backend/internal/app"
	"assetrent-backend/internal/config"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	lg := logger.New(cfg.Log.Level, cfg.Log.Format)
	lg.Info().Str("log_level", cfg.Log.Level).Str("log_format", cfg.Log.Format).Msg("Starting AssetRent backend...")
	cfg.LogConfig(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Error().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer a.Close()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	roles := security.NewRoleProvider(cfg.JWT.PrivilegedRoles)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Approvals: a.Approvals,
		Revenue:   a.Revenue,
		Tokens:    tokenManager,
		Roles:     roles,
		Metrics:   a.Metrics,
		Log:       lg,
	})

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info().Str("address", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	lg.Info().Msg("Server stopped")
}
