package optimization

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
)

func TestService_OptimizeDefaultBounds(t *testing.T) {
	svc := NewService(nil, 2, DefaultOptimizerConfig(), zerolog.Nop())

	res, err := svc.Optimize(context.Background(), engineConfig(), withdrawal.Smoothed, 0, 0)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.OptimalRate, DefaultMinRate)
	assert.LessOrEqual(t, res.OptimalRate, DefaultMaxRate)
}

func TestService_OptimizeInvalidConfig(t *testing.T) {
	svc := NewService(nil, 2, DefaultOptimizerConfig(), zerolog.Nop())

	cfg := engineConfig()
	cfg.NumPaths = 0
	_, err := svc.Optimize(context.Background(), cfg, withdrawal.Smoothed, 0, 0)
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestService_Compare(t *testing.T) {
	svc := NewService(nil, 2, DefaultOptimizerConfig(), zerolog.Nop())

	specs := []PolicySpec{
		{Rule: withdrawal.PercentOfFund, Rate: 0.03},
		{Rule: withdrawal.Smoothed, Rate: 0.03},
	}
	summaries, err := svc.Compare(context.Background(), engineConfig(), specs, []int{30})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, withdrawal.PercentOfFund, summaries[0].Rule)
	assert.Equal(t, withdrawal.Smoothed, summaries[1].Rule)
}
