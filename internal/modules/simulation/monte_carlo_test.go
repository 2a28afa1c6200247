package simulation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
)

func testConfig(rule withdrawal.Rule) FundConfig {
	cfg := DefaultFundConfig()
	cfg.WithdrawalRule = rule
	cfg.NumPaths = 400
	cfg.TotalYears = 40
	cfg.AccumulationYears = 10
	return cfg
}

func simulate(t *testing.T, cfg FundConfig, opts ...Option) *AggregateResult {
	t.Helper()
	sim, err := NewMonteCarloSimulator(cfg, market_regime.DefaultRegimeSet(), opts...)
	require.NoError(t, err)
	res, err := sim.Simulate(context.Background())
	require.NoError(t, err)
	return res
}

func TestNewMonteCarloSimulator_RejectsBadConfig(t *testing.T) {
	cfg := DefaultFundConfig()
	cfg.AccumulationYears = 60

	sim, err := NewMonteCarloSimulator(cfg, nil)
	assert.Nil(t, sim)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewMonteCarloSimulator_RejectsBadCalibration(t *testing.T) {
	_, err := NewMonteCarloSimulator(DefaultFundConfig(), nil,
		WithCalibration(market_regime.Calibration{MeanReturn: 0.05, Volatility: -0.1}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, market_regime.ErrInvalidRegime)
}

func TestSimulate_Deterministic(t *testing.T) {
	cfg := testConfig(withdrawal.Smoothed)

	a := simulate(t, cfg)
	b := simulate(t, cfg)
	assert.Equal(t, a, b)
}

func TestSimulate_IndependentOfWorkerCount(t *testing.T) {
	cfg := testConfig(withdrawal.Hybrid)

	one := simulate(t, cfg, WithWorkers(1))
	many := simulate(t, cfg, WithWorkers(8))
	assert.Equal(t, one, many)
}

func TestSimulate_SeedChangesResult(t *testing.T) {
	cfg := testConfig(withdrawal.PercentOfFund)
	other := cfg
	other.Seed = 43

	assert.NotEqual(t, simulate(t, cfg).FundStats.P50, simulate(t, other).FundStats.P50)
}

func TestSimulate_IdenticalConfigsMatch(t *testing.T) {
	a := testConfig(withdrawal.Ratcheted)
	b := testConfig(withdrawal.Ratcheted)

	assert.Equal(t, simulate(t, a).WithdrawalStats, simulate(t, b).WithdrawalStats)
}

func TestSimulate_PathInvariants(t *testing.T) {
	for _, rule := range withdrawal.AllRules() {
		for _, switching := range []bool{true, false} {
			cfg := testConfig(rule)
			cfg.UseRegimeSwitching = switching
			cfg.RetainPaths = cfg.NumPaths

			t.Run(rule.String(), func(t *testing.T) {
				res := simulate(t, cfg)
				require.Len(t, res.Paths, cfg.NumPaths)

				for _, p := range res.Paths {
					for y := 0; y < cfg.TotalYears; y++ {
						assert.GreaterOrEqual(t, p.FundValues[y], 0.0)
						assert.GreaterOrEqual(t, p.Withdrawals[y], 0.0)
						assert.LessOrEqual(t, p.Withdrawals[y], p.FundValues[y]*cfg.MaxWithdrawalRate)
						if y < cfg.AccumulationYears {
							assert.Equal(t, 0.0, p.Withdrawals[y])
						}
						if p.Withdrawals[y] == 0 {
							assert.Equal(t, 0.0, p.BenefitPerCapita[y])
						}
					}
					assert.GreaterOrEqual(t, p.FinalValue(), 0.0)

					if switching {
						assert.Len(t, p.Regimes, cfg.TotalYears)
						assert.Equal(t, market_regime.RegimeBull, p.Regimes[0])
					} else {
						assert.Nil(t, p.Regimes)
					}
				}
			})
		}
	}
}

func TestSimulate_RatchetNeverFallsBelowCap(t *testing.T) {
	cfg := testConfig(withdrawal.Ratcheted)
	cfg.RetainPaths = cfg.NumPaths

	res := simulate(t, cfg)
	for _, p := range res.Paths {
		for y := cfg.AccumulationYears + 1; y < cfg.TotalYears; y++ {
			prev := p.Withdrawals[y-1]
			if p.FundValues[y-1] > 0 && prev <= p.FundValues[y]*cfg.MaxWithdrawalRate {
				assert.GreaterOrEqual(t, p.Withdrawals[y], prev)
			}
		}
	}
}

func TestSimulate_RatchetMonotoneWhenCapSlack(t *testing.T) {
	cfg := testConfig(withdrawal.Ratcheted)
	cfg.MaxWithdrawalRate = 1
	cfg.UseRegimeSwitching = false
	cfg.RetainPaths = cfg.NumPaths

	res := simulate(t, cfg)
	for _, p := range res.Paths {
		for y := cfg.AccumulationYears + 1; y < cfg.TotalYears; y++ {
			if p.FundValues[y] >= p.Withdrawals[y-1] {
				assert.GreaterOrEqual(t, p.Withdrawals[y], p.Withdrawals[y-1])
			}
		}
	}
}

func TestSimulate_PercentilesOrdered(t *testing.T) {
	res := simulate(t, testConfig(withdrawal.LiabilityDriven))

	for _, bands := range []Bands{res.FundStats, res.WithdrawalStats, res.BenefitStats, res.MonthlyBenefitStats} {
		ordered := bands.Ordered()
		for y := range bands.P50 {
			for k := 1; k < len(ordered); k++ {
				assert.LessOrEqual(t, ordered[k-1][y], ordered[k][y])
			}
		}
	}
}

func TestSimulate_RetainsFirstPaths(t *testing.T) {
	cfg := testConfig(withdrawal.PercentOfFund)
	cfg.RetainPaths = 5

	sim, err := NewMonteCarloSimulator(cfg, nil)
	require.NoError(t, err)
	res, err := sim.Simulate(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Paths, 5)
	for i, p := range res.Paths {
		assert.Equal(t, sim.DrawPath(i).Returns, p.Returns)
	}
}

func TestSimulate_RiskMetricsInRange(t *testing.T) {
	res := simulate(t, testConfig(withdrawal.PercentOfFund))

	for _, v := range []float64{res.ProbRuin, res.ProbSuccess, res.MaxDrawdownMedian, res.MaxDrawdownP95} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.LessOrEqual(t, res.MaxDrawdownMedian, res.MaxDrawdownP95)

	total := 0.0
	for _, share := range res.RegimeShares {
		total += share
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestSimulate_Cancelled(t *testing.T) {
	sim, err := NewMonteCarloSimulator(testConfig(withdrawal.PercentOfFund), nil, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sim.Simulate(ctx)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDrawPaths_MatchesDrawPath(t *testing.T) {
	sim, err := NewMonteCarloSimulator(testConfig(withdrawal.PercentOfFund), nil, WithWorkers(3))
	require.NoError(t, err)

	paths, err := sim.DrawPaths(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 400)
	assert.Equal(t, sim.DrawPath(17), paths[17])
}

// Baseline example: $500B seed, $250B/yr growing 2%, 3.5% of fund after
// 20 of 50 years, i.i.d. returns, seed 42, 10,000 paths.
func TestSimulate_BaselineExample(t *testing.T) {
	if testing.Short() {
		t.Skip("full 10,000 path run")
	}

	cfg := DefaultFundConfig()
	cfg.WithdrawalRule = withdrawal.PercentOfFund
	cfg.WithdrawalRate = 0.035
	cfg.UseRegimeSwitching = false
	cfg.Seed = 42
	cfg.NumPaths = 10000

	res := simulate(t, cfg)

	assert.Greater(t, res.FundStats.P50[20], 500e9)
	for y := 0; y < 20; y++ {
		assert.Equal(t, 0.0, res.WithdrawalStats.P5[y])
		assert.Equal(t, 0.0, res.WithdrawalStats.P95[y])
		assert.Equal(t, 0.0, res.WithdrawalStats.Mean[y])
	}
	assert.Greater(t, res.WithdrawalStats.P50[20], 0.0)
	assert.Len(t, res.Paths, 100)
	assert.Nil(t, res.RegimeShares)
}
