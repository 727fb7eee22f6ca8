package jobs

import (
	"context"
	"fmt"
	"time"

	"assetrent-backend/internal/config"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/service"
)

const (
	JobRecomputeRevenue     = "recompute-revenue"
	JobSendBillingReminders = "send-billing-reminders"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	log      *logger.Logger
	timeout  time.Duration
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Revenue service.RevenueService
	Billing service.BillingService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config, log *logger.Logger) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		log:      log.WithService("jobs"),
		timeout:  30 * time.Minute,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and a deadline
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			jr.log.Error().Str("job", jobName).Interface("panic", r).Msg("Job panicked")
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := time.Now()
	jr.log.Info().Str("job", jobName).Msg("Starting job")
	if err := jobFunc(ctx); err != nil {
		jr.log.Error().Err(err).Str("job", jobName).Dur("elapsed", time.Since(start)).Msg("Job failed")
		return err
	}
	jr.log.Info().Str("job", jobName).Dur("elapsed", time.Since(start)).Msg("Job completed")
	return nil
}

// RecomputeRevenue runs the revenue sweep. A sweep already running elsewhere
// is reported and skipped.
func (jr *JobRunner) RecomputeRevenue() error {
	return jr.runWithRecovery("RecomputeRevenue", func(ctx context.Context) error {
		report, err := jr.services.Revenue.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		jr.log.Info().
			Int("assets", report.Assets).
			Int("rentals", report.Rentals).
			Int("skipped", report.Skipped).
			Int("batches", report.Batches).
			Str("total", report.Total.StringFixed(2)).
			Msg("Revenue recomputed")
		return nil
	})
}

// SendBillingReminders sends the monthly digest when today is the reminder day.
func (jr *JobRunner) SendBillingReminders() error {
	return jr.runWithRecovery("SendBillingReminders", func(ctx context.Context) error {
		n, err := jr.services.Billing.SendReminders(ctx)
		if err != nil {
			return err
		}
		jr.log.Info().Int("reminders", n).Msg("Billing reminders processed")
		return nil
	})
}

// RunOnce runs one job by its command line name.
func (jr *JobRunner) RunOnce(name string) error {
	switch name {
	case JobRecomputeRevenue:
		return jr.RecomputeRevenue()
	case JobSendBillingReminders:
		return jr.SendBillingReminders()
	}
	return fmt.Errorf("unknown job %q (want %s or %s)", name, JobRecomputeRevenue, JobSendBillingReminders)
}
