package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
)

func TestNewService_DefaultsRegimes(t *testing.T) {
	svc := NewService(nil, 3, zerolog.Nop())

	require.NotNil(t, svc.RegimeSet())
	assert.Equal(t, 3, svc.Workers())
}

func TestService_Simulate(t *testing.T) {
	svc := NewService(nil, 2, zerolog.Nop())
	cfg := testConfig(withdrawal.PercentOfFund)
	cfg.NumPaths = 100
	cfg.RetainPaths = 3

	res, err := svc.Simulate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, res.Paths, 3)
	assert.GreaterOrEqual(t, res.ProbRuin, 0.0)
	assert.LessOrEqual(t, res.ProbSuccess, 1.0)

	direct, err := NewMonteCarloSimulator(cfg, svc.RegimeSet(), WithWorkers(7))
	require.NoError(t, err)
	want, err := direct.Simulate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, res)
}

func TestService_Simulate_InvalidConfig(t *testing.T) {
	svc := NewService(nil, 2, zerolog.Nop())
	cfg := DefaultFundConfig()
	cfg.NumPaths = 0

	_, err := svc.Simulate(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestService_Simulate_Cancelled(t *testing.T) {
	svc := NewService(nil, 2, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := svc.Simulate(ctx, testConfig(withdrawal.Smoothed))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
