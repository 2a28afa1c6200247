package optimization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
	"github.com/j-alcock/ss-extension-act-sub000/pkg/formulas"
)

func engineConfig() simulation.FundConfig {
	cfg := simulation.DefaultFundConfig()
	cfg.NumPaths = 200
	cfg.UseRegimeSwitching = false
	return cfg
}

func newEngine(t *testing.T, cfg simulation.FundConfig, regimes *market_regime.RegimeSet, opts ...EngineOption) *PolicyEngine {
	t.Helper()
	e, err := NewPolicyEngine(context.Background(), cfg, regimes, opts...)
	require.NoError(t, err)
	return e
}

func TestNewPolicyEngine(t *testing.T) {
	e := newEngine(t, engineConfig(), nil)

	assert.Equal(t, 200, e.NumPaths())
	assert.Equal(t, DefaultEngineMaxRate, e.MaxRate())
	assert.Equal(t, DefaultEngineMaxRate, e.Config().MaxWithdrawalRate)
	assert.Equal(t, DefaultUtilityScorer(), e.Scorer())
}

func TestNewPolicyEngine_KeepsHigherCap(t *testing.T) {
	cfg := engineConfig()
	cfg.MaxWithdrawalRate = 0.2

	e := newEngine(t, cfg, nil)
	assert.Equal(t, 0.2, e.MaxRate())
}

func TestNewPolicyEngine_Errors(t *testing.T) {
	cfg := engineConfig()
	cfg.AccumulationYears = 99
	_, err := NewPolicyEngine(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)

	_, err = NewPolicyEngine(context.Background(), engineConfig(), nil, WithScorer(UtilityScorer{Gamma: 2, Beta: 0}))
	assert.ErrorIs(t, err, ErrInvalidScorer)
}

func TestEvaluate_OutcomeMetrics(t *testing.T) {
	e := newEngine(t, engineConfig(), nil, WithEngineWorkers(4))

	outcomes, err := e.Evaluate(context.Background(), PolicySpec{Rule: withdrawal.Smoothed, Rate: 0.04})
	require.NoError(t, err)
	require.Len(t, outcomes, 200)

	for _, o := range outcomes {
		assert.GreaterOrEqual(t, o.ShortfallYears, 20, "accumulation years pay nothing")
		assert.GreaterOrEqual(t, o.Volatility, 0.0)
		assert.Contains(t, []float64{0, 1}, o.Sustainability)
		assert.InDelta(t, e.Scorer().Score(o.Path.MonthlyBenefit), o.Utility, 1e-12)
		for y := 0; y < 50; y++ {
			assert.LessOrEqual(t, o.Path.Withdrawals[y], o.Path.FundValues[y]*e.MaxRate())
		}
	}
}

func TestEvaluate_CommonRandomNumbers(t *testing.T) {
	e := newEngine(t, engineConfig(), nil)

	a, err := e.Evaluate(context.Background(), PolicySpec{Rule: withdrawal.PercentOfFund, Rate: 0.03})
	require.NoError(t, err)
	b, err := e.Evaluate(context.Background(), PolicySpec{Rule: withdrawal.Ratcheted, Rate: 0.05})
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Path.Returns, b[i].Path.Returns)
	}
}

func TestEvaluate_HigherRatePaysMoreEarly(t *testing.T) {
	e := newEngine(t, engineConfig(), nil)

	low, err := e.Evaluate(context.Background(), PolicySpec{Rule: withdrawal.PercentOfFund, Rate: 0.02})
	require.NoError(t, err)
	high, err := e.Evaluate(context.Background(), PolicySpec{Rule: withdrawal.PercentOfFund, Rate: 0.06})
	require.NoError(t, err)

	// Same fund value entering the first payout year
	for i := range low {
		assert.Greater(t, high[i].Path.Withdrawals[20], low[i].Path.Withdrawals[20])
	}
}

func TestEvaluate_RejectsRateAboveCap(t *testing.T) {
	e := newEngine(t, engineConfig(), nil)

	_, err := e.Evaluate(context.Background(), PolicySpec{Rule: withdrawal.PercentOfFund, Rate: 0.2})
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestEvaluate_ConstantRealBaseAmount(t *testing.T) {
	e := newEngine(t, engineConfig(), nil)

	outcomes, err := e.Evaluate(context.Background(), PolicySpec{Rule: withdrawal.ConstantReal, Rate: 0.035, BaseAmount: 200e9})
	require.NoError(t, err)

	for _, o := range outcomes {
		expected := withdrawal.Clamp(200e9, o.Path.FundValues[20], e.MaxRate())
		assert.InDelta(t, expected, o.Path.Withdrawals[20], 1e-3)
	}
}

func TestScore_VolatilityAndShortfall(t *testing.T) {
	e := newEngine(t, engineConfig(), nil)

	path := simulation.PathResult{
		FundValues:     []float64{500e9, 400e9, 300e9, 200e9, 100e9},
		MonthlyBenefit: []float64{0, 100, 40, 60},
	}

	o := e.score(path)
	assert.Equal(t, 2, o.ShortfallYears)
	assert.InDelta(t, formulas.PopStdDev([]float64{100, -60, 20}), o.Volatility, 1e-12)
	assert.Equal(t, 0.0, o.Sustainability)

	path.MonthlyBenefit = []float64{0, 0, 100, 0}
	o = e.score(path)
	assert.Equal(t, 0.0, o.Volatility, "only the rise into a paying year counts")
}
