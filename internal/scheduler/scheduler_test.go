package scheduler

import (
	"testing"

	"assetrent-backend/internal/config"
	"assetrent-backend/internal/jobs"
	"assetrent-backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	t.Run("Registers both jobs", func(t *testing.T) {
		cfg := &config.Config{Scheduler: config.SchedulerConfig{
			RecomputeRevenue:     "0 0 1 * * *",
			SendBillingReminders: "0 0 9 * * *",
		}}
		s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, logger.Nop()), logger.Nop())
		require.NoError(t, err)
		assert.Equal(t, 2, s.Entries())

		s.Start()
		s.Stop()
	})

	t.Run("Bad expression", func(t *testing.T) {
		cfg := &config.Config{Scheduler: config.SchedulerConfig{
			RecomputeRevenue:     "every night",
			SendBillingReminders: "0 0 9 * * *",
		}}
		_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, logger.Nop()), logger.Nop())
		assert.Error(t, err)
	})
}
