package scheduler

import (
	"fmt"
	"time"

	"assetrent-backend/internal/jobs"
	"assetrent-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
	log  *logger.Logger
}

// NewScheduler creates a new scheduler with the provided job runner. A bad
// cron expression in the configuration fails construction.
func NewScheduler(jobRunner *jobs.JobRunner, log *logger.Logger) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
		log:  log.WithService("scheduler"),
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.RecomputeRevenue, func() { _ = s.jobs.RecomputeRevenue() }); err != nil {
		return fmt.Errorf("register RecomputeRevenue job: %w", err)
	}

	if _, err := s.cron.AddFunc(cfg.SendBillingReminders, func() { _ = s.jobs.SendBillingReminders() }); err != nil {
		return fmt.Errorf("register SendBillingReminders job: %w", err)
	}

	s.log.Info().
		Str("recompute_revenue", cfg.RecomputeRevenue).
		Str("send_billing_reminders", cfg.SendBillingReminders).
		Msg("All cron jobs registered successfully")
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.log.Info().Msg("Starting cron scheduler...")
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	s.log.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Cron scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
