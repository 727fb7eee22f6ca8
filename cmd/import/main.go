package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"assetrent-backend/internal/app"
	"assetrent-backend/internal/config"
	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/importer"
	"assetrent-backend/internal/logger"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	file := flag.String("file", "", "Workbook to import (.xlsx)")
	actor := flag.String("actor", "importer", "Name recorded as the submitting actor")
	privileged := flag.Bool("privileged", false, "Write rows live instead of queueing them for approval")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	lg := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Error().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer a.Close()

	capability := domain.StandardActor(*actor)
	if *privileged {
		capability = domain.PrivilegedActor(*actor)
	}

	report, err := importer.New(a.Approvals, a.Store, lg).ImportFile(ctx, capability, *file)
	if err != nil {
		lg.Error().Err(err).Str("file", *file).Msg("Import failed")
		a.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		lg.Error().Err(err).Msg("Failed to write report")
	}
	if report.Failed > 0 {
		a.Close()
		os.Exit(2)
	}
}
