package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"assetrent-backend/internal/app"
	"assetrent-backend/internal/config"
	"assetrent-backend/internal/jobs"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", fmt.Sprintf("Run a specific job once and exit (%s, %s)", jobs.JobRecomputeRevenue, jobs.JobSendBillingReminders))
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	lg := logger.New(cfg.Log.Level, cfg.Log.Format)
	lg.Info().Str("log_level", cfg.Log.Level).Msg("Starting AssetRent cronjob runner...")
	cfg.LogConfig(lg)

	a, err := app.New(context.Background(), cfg, lg)
	if err != nil {
		lg.Error().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer a.Close()

	jobRunner := jobs.NewJobRunner(&jobs.Services{Revenue: a.Revenue, Billing: a.Billing}, cfg, lg)

	// Check if running a single job
	if *runOnce != "" {
		if err := jobRunner.RunOnce(*runOnce); err != nil {
			lg.Error().Err(err).Str("job", *runOnce).Msg("Job execution failed")
			a.Close()
			os.Exit(1)
		}
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner, lg)
	if err != nil {
		lg.Error().Err(err).Msg("Failed to create scheduler")
		a.Close()
		os.Exit(1)
	}

	cronScheduler.Start()
	lg.Info().Msg("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	cronScheduler.Stop()
	lg.Info().Msg("Cronjob scheduler stopped. Goodbye!")
}
