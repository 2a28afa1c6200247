package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
)

func TestDefaultFundConfig_Valid(t *testing.T) {
	cfg := DefaultFundConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500e9, cfg.InitialCapital)
	assert.Equal(t, withdrawal.PercentOfFund, cfg.WithdrawalRule)
	assert.Equal(t, 100, cfg.RetainPaths)
}

func TestFundConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FundConfig)
	}{
		{"accumulation beyond horizon", func(c *FundConfig) { c.AccumulationYears = 51 }},
		{"negative accumulation", func(c *FundConfig) { c.AccumulationYears = -1 }},
		{"zero horizon", func(c *FundConfig) { c.TotalYears = 0; c.AccumulationYears = 0 }},
		{"zero paths", func(c *FundConfig) { c.NumPaths = 0 }},
		{"negative retained paths", func(c *FundConfig) { c.RetainPaths = -1 }},
		{"negative capital", func(c *FundConfig) { c.InitialCapital = -1 }},
		{"negative contribution", func(c *FundConfig) { c.AnnualContribution = -1 }},
		{"negative contribution growth", func(c *FundConfig) { c.ContributionGrowthRate = -0.01 }},
		{"negative withdrawal rate", func(c *FundConfig) { c.WithdrawalRate = -0.01 }},
		{"rate above cap", func(c *FundConfig) { c.WithdrawalRate = 0.06 }},
		{"negative cap", func(c *FundConfig) { c.MaxWithdrawalRate = -0.05; c.WithdrawalRate = 0 }},
		{"negative min withdrawal", func(c *FundConfig) { c.MinWithdrawal = -1 }},
		{"unknown rule", func(c *FundConfig) { c.WithdrawalRule = "yolo" }},
		{"alpha out of range", func(c *FundConfig) { c.SmoothingAlpha = 2 }},
		{"zero population", func(c *FundConfig) { c.BasePopulation = 0 }},
		{"negative population growth", func(c *FundConfig) { c.PopulationGrowthRate = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFundConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			_, err = NewPathSimulator(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestFundConfig_UnknownRuleWrapsRuleError(t *testing.T) {
	cfg := DefaultFundConfig()
	cfg.WithdrawalRule = "yolo"

	err := cfg.Validate()
	assert.ErrorIs(t, err, withdrawal.ErrUnknownRule)
}

func TestFundConfig_AccumulationEqualsHorizon(t *testing.T) {
	cfg := DefaultFundConfig()
	cfg.AccumulationYears = cfg.TotalYears
	assert.NoError(t, cfg.Validate())
}

func TestFundConfig_Schedules(t *testing.T) {
	cfg := DefaultFundConfig()

	assert.Equal(t, 250e9, cfg.Contribution(0))
	assert.InDelta(t, 250e9*1.02*1.02, cfg.Contribution(2), 1)
	assert.Equal(t, 330e6, cfg.Population(0))
	assert.InDelta(t, 330e6*1.003, cfg.Population(1), 1e-3)
}

func TestFundConfig_WithdrawalParams(t *testing.T) {
	cfg := DefaultFundConfig()
	cfg.SmoothingAlpha = 0.4
	cfg.MinWithdrawal = 1e9

	p := cfg.WithdrawalParams()
	assert.Equal(t, 0.035, p.Rate)
	assert.Equal(t, 0.05, p.MaxRate)
	assert.Equal(t, 20, p.AccumulationYears)
	assert.Equal(t, 0.4, p.Alpha)
	assert.Equal(t, 1e9, p.BaseAmount)
	assert.Equal(t, 330e6, p.Liability.Population)
}

func TestFundConfig_WithRuleCopies(t *testing.T) {
	cfg := DefaultFundConfig()
	other := cfg.WithRule(withdrawal.Hybrid, 0.04)

	assert.Equal(t, withdrawal.Hybrid, other.WithdrawalRule)
	assert.Equal(t, 0.04, other.WithdrawalRate)
	assert.Equal(t, withdrawal.PercentOfFund, cfg.WithdrawalRule)
}
