// Package app wires configuration into the store, services and background
// machinery shared by every binary.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"assetrent-backend/internal/config"
	"assetrent-backend/internal/lock"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/metrics"
	"assetrent-backend/internal/repository"
	"assetrent-backend/internal/repository/memory"
	"assetrent-backend/internal/repository/postgres"
	"assetrent-backend/internal/service"
)

type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Metrics   *metrics.Metrics
	Store     repository.Store
	Allocator service.IdentityAllocator
	Approvals service.ApprovalService
	Revenue   service.RevenueService
	Billing   service.BillingService

	closers []func() error
}

// New builds the application graph. Close releases the database and redis
// connections it opened.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}
	clock := service.SystemClock{}

	var db *sql.DB
	switch cfg.Storage.Type {
	case "postgres":
		log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Msg("Connecting to database...")
		var err error
		db, err = postgres.Open(ctx, cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		log.Info().Msg("Database connection established")

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				a.Close()
				return nil, err
			}
			log.Info().Msg("Schema applied")
		}
		a.Store = postgres.NewStore(db, log)
	case "memory":
		log.Warn().Msg("Using in-memory storage; data is lost on exit")
		a.Store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	locker, err := a.locker(cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Allocator = service.NewIdentityAllocator(cfg.Identity.Prefix, log, a.Metrics)
	a.Approvals = service.NewApprovalService(a.Store, a.Allocator, clock, log, a.Metrics)
	a.Revenue = service.NewRevenueService(a.Store, locker, service.RevenueOptions{
		BatchSize: cfg.Revenue.BatchSize,
		LockKey:   cfg.Revenue.LockKey,
	}, clock, log, a.Metrics)
	a.Billing = service.NewBillingService(a.Store, a.notifier(cfg), cfg.Billing.ReminderDay, clock, log, a.Metrics)
	return a, nil
}

func (a *App) locker(cfg *config.Config, db *sql.DB) (lock.Locker, error) {
	switch cfg.Revenue.LockBackend {
	case "local", "":
		return lock.NewLocalLocker(), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres lock backend requires postgres storage")
		}
		return lock.NewPostgresLocker(db), nil
	case "redis":
		client := lock.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, client.Close)
		return lock.NewRedisLocker(client, time.Duration(cfg.Revenue.LockTTLSeconds)*time.Second), nil
	}
	return nil, fmt.Errorf("unknown revenue lock backend: %s", cfg.Revenue.LockBackend)
}

func (a *App) notifier(cfg *config.Config) service.Notifier {
	if cfg.SMTP.Host == "" {
		return service.NewLogNotifier(a.Log)
	}
	return service.NewMailNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.To, a.Log)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
