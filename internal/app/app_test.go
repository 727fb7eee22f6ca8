package app

import (
	"context"
	"testing"

	"assetrent-backend/internal/config"
	"assetrent-backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memoryYAML = `
server:
  port: 8080
storage:
  type: memory
jwt:
  secret: 0123456789abcdef0123456789abcdef
`

func TestNew_Memory(t *testing.T) {
	cfg, err := config.Parse([]byte(memoryYAML))
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Approvals)
	assert.NotNil(t, a.Revenue)
	assert.NotNil(t, a.Billing)

	report, err := a.Revenue.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Assets)
}

func TestNew_UnknownLockBackend(t *testing.T) {
	cfg, err := config.Parse([]byte(memoryYAML))
	require.NoError(t, err)
	cfg.Revenue.LockBackend = "zookeeper"

	_, err = New(context.Background(), cfg, logger.Nop())
	assert.ErrorContains(t, err, "unknown revenue lock backend")
}
