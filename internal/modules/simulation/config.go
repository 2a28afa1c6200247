// Package simulation runs stochastic projections of a sovereign UBI fund.
package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
)

// ErrInvalidConfig is returned when a FundConfig fails validation
var ErrInvalidConfig = errors.New("invalid fund configuration")

// FundConfig configures one scenario. Amounts are absolute dollars and
// rates are fractions (0.035 = 3.5%). Years are indexed from 0.
type FundConfig struct {
	InitialCapital         float64         `json:"initial_capital" yaml:"initial_capital" msgpack:"initial_capital"`
	AnnualContribution     float64         `json:"annual_contribution" yaml:"annual_contribution" msgpack:"annual_contribution"`
	ContributionGrowthRate float64         `json:"contribution_growth_rate" yaml:"contribution_growth_rate" msgpack:"contribution_growth_rate"`
	WithdrawalRule         withdrawal.Rule `json:"withdrawal_rule" yaml:"withdrawal_rule" msgpack:"withdrawal_rule"`
	WithdrawalRate         float64         `json:"withdrawal_rate" yaml:"withdrawal_rate" msgpack:"withdrawal_rate"`
	MinWithdrawal          float64         `json:"min_withdrawal" yaml:"min_withdrawal" msgpack:"min_withdrawal"` // constant_real base; 0 means fund*rate
	MaxWithdrawalRate      float64         `json:"max_withdrawal_rate" yaml:"max_withdrawal_rate" msgpack:"max_withdrawal_rate"`
	SmoothingAlpha         float64         `json:"smoothing_alpha" yaml:"smoothing_alpha" msgpack:"smoothing_alpha"` // weight on the new target
	HybridWeight           float64         `json:"hybrid_weight" yaml:"hybrid_weight" msgpack:"hybrid_weight"`       // weight on last year's payout
	InflationRate          float64         `json:"inflation_rate" yaml:"inflation_rate" msgpack:"inflation_rate"`
	RatchetUpPct           float64         `json:"ratchet_up_pct" yaml:"ratchet_up_pct" msgpack:"ratchet_up_pct"`
	UseRegimeSwitching     bool            `json:"use_regime_switching" yaml:"use_regime_switching" msgpack:"use_regime_switching"`
	AccumulationYears      int             `json:"accumulation_years" yaml:"accumulation_years" msgpack:"accumulation_years"`
	TotalYears             int             `json:"total_years" yaml:"total_years" msgpack:"total_years"`
	NumPaths               int             `json:"num_paths" yaml:"num_paths" msgpack:"num_paths"`
	Seed                   uint64          `json:"seed" yaml:"seed" msgpack:"seed"`
	RetainPaths            int             `json:"retain_paths" yaml:"retain_paths" msgpack:"retain_paths"`
	BasePopulation         float64         `json:"base_population" yaml:"base_population" msgpack:"base_population"`
	PopulationGrowthRate   float64         `json:"population_growth_rate" yaml:"population_growth_rate" msgpack:"population_growth_rate"`
}

// DefaultFundConfig returns the baseline projection: $500B seed, $250B/yr
// contributions growing 2%, 3.5% of fund capped at 5%, withdrawals from
// year 20 of 50, regime switching on, 10,000 paths, seed 42.
func DefaultFundConfig() FundConfig {
	return FundConfig{
		InitialCapital:         500e9,
		AnnualContribution:     250e9,
		ContributionGrowthRate: 0.02,
		WithdrawalRule:         withdrawal.PercentOfFund,
		WithdrawalRate:         0.035,
		MinWithdrawal:          0,
		MaxWithdrawalRate:      0.05,
		SmoothingAlpha:         0.3,
		HybridWeight:           0.7,
		InflationRate:          0.02,
		RatchetUpPct:           0.03,
		UseRegimeSwitching:     true,
		AccumulationYears:      20,
		TotalYears:             50,
		NumPaths:               10000,
		Seed:                   42,
		RetainPaths:            100,
		BasePopulation:         330e6,
		PopulationGrowthRate:   0.003,
	}
}

// Validate checks the configuration before any path is simulated
func (c FundConfig) Validate() error {
	switch {
	case c.TotalYears <= 0:
		return fmt.Errorf("%w: total years %d must be positive", ErrInvalidConfig, c.TotalYears)
	case c.AccumulationYears < 0:
		return fmt.Errorf("%w: accumulation years %d is negative", ErrInvalidConfig, c.AccumulationYears)
	case c.AccumulationYears > c.TotalYears:
		return fmt.Errorf("%w: accumulation years %d exceed total years %d", ErrInvalidConfig, c.AccumulationYears, c.TotalYears)
	case c.NumPaths <= 0:
		return fmt.Errorf("%w: path count %d must be positive", ErrInvalidConfig, c.NumPaths)
	case c.RetainPaths < 0:
		return fmt.Errorf("%w: retained path count %d is negative", ErrInvalidConfig, c.RetainPaths)
	case c.InitialCapital < 0 || math.IsNaN(c.InitialCapital):
		return fmt.Errorf("%w: initial capital %v is negative", ErrInvalidConfig, c.InitialCapital)
	case c.AnnualContribution < 0 || math.IsNaN(c.AnnualContribution):
		return fmt.Errorf("%w: annual contribution %v is negative", ErrInvalidConfig, c.AnnualContribution)
	case c.ContributionGrowthRate < 0:
		return fmt.Errorf("%w: contribution growth rate %v is negative", ErrInvalidConfig, c.ContributionGrowthRate)
	case c.MinWithdrawal < 0:
		return fmt.Errorf("%w: minimum withdrawal %v is negative", ErrInvalidConfig, c.MinWithdrawal)
	case c.BasePopulation <= 0:
		return fmt.Errorf("%w: base population %v must be positive", ErrInvalidConfig, c.BasePopulation)
	case c.PopulationGrowthRate < 0:
		return fmt.Errorf("%w: population growth rate %v is negative", ErrInvalidConfig, c.PopulationGrowthRate)
	}

	if !c.WithdrawalRule.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, withdrawal.ErrUnknownRule, c.WithdrawalRule)
	}
	if err := c.WithdrawalParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// WithdrawalParams maps the config onto withdrawal rule parameters
func (c FundConfig) WithdrawalParams() withdrawal.Params {
	p := withdrawal.DefaultParams()
	p.Rate = c.WithdrawalRate
	p.MaxRate = c.MaxWithdrawalRate
	p.AccumulationYears = c.AccumulationYears
	p.Inflation = c.InflationRate
	p.BaseAmount = c.MinWithdrawal
	p.HybridWeight = c.HybridWeight
	p.Alpha = c.SmoothingAlpha
	p.RatchetUpPct = c.RatchetUpPct
	p.Liability.Population = c.BasePopulation
	return p
}

// Policy builds the configured withdrawal policy
func (c FundConfig) Policy() (*withdrawal.Policy, error) {
	p, err := withdrawal.New(c.WithdrawalRule, c.WithdrawalParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}

// Population returns the population in year t
func (c FundConfig) Population(t int) float64 {
	return c.BasePopulation * math.Pow(1+c.PopulationGrowthRate, float64(t))
}

// Contribution returns the contribution paid in during year t
func (c FundConfig) Contribution(t int) float64 {
	return c.AnnualContribution * math.Pow(1+c.ContributionGrowthRate, float64(t))
}

// WithRule returns a copy of the config using another rule and rate
func (c FundConfig) WithRule(rule withdrawal.Rule, rate float64) FundConfig {
	c.WithdrawalRule = rule
	c.WithdrawalRate = rate
	return c
}
