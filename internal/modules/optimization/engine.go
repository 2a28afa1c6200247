package optimization

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
	"github.com/j-alcock/ss-extension-act-sub000/pkg/formulas"
)

const (
	// DefaultEngineMaxRate caps withdrawals during policy evaluation
	DefaultEngineMaxRate = 0.10
	// ShortfallMonthly is the monthly benefit below which a year counts as a shortfall
	ShortfallMonthly = 50.0
)

// PolicyOutcome is one path under one policy plus its scoring metrics
type PolicyOutcome struct {
	Path           simulation.PathResult `json:"path" msgpack:"path"`
	ShortfallYears int                   `json:"shortfall_years" msgpack:"shortfall_years"`
	Volatility     float64               `json:"volatility" msgpack:"volatility"` // std of year-on-year monthly benefit change
	Utility        float64               `json:"utility" msgpack:"utility"`
	Sustainability float64               `json:"sustainability" msgpack:"sustainability"` // 1 if the fund kept half its seed
}

// PolicySpec names a rule and rate to evaluate
type PolicySpec struct {
	Rule       withdrawal.Rule `json:"rule" yaml:"rule" msgpack:"rule"`
	Rate       float64         `json:"rate" yaml:"rate" msgpack:"rate"`
	BaseAmount float64         `json:"base_amount,omitempty" yaml:"base_amount,omitempty" msgpack:"base_amount,omitempty"` // constant_real only
}

// DefaultPolicySpecs is the standard comparison set
func DefaultPolicySpecs() []PolicySpec {
	return []PolicySpec{
		{Rule: withdrawal.PercentOfFund, Rate: 0.035},
		{Rule: withdrawal.ConstantReal, Rate: 0.035, BaseAmount: 200e9},
		{Rule: withdrawal.Hybrid, Rate: 0.04},
		{Rule: withdrawal.Smoothed, Rate: 0.035},
		{Rule: withdrawal.LiabilityDriven, Rate: 0.035},
		{Rule: withdrawal.Ratcheted, Rate: 0.035},
	}
}

// EngineOption configures a PolicyEngine
type EngineOption func(*PolicyEngine)

// WithEngineLogger sets the engine's logger
func WithEngineLogger(log zerolog.Logger) EngineOption {
	return func(e *PolicyEngine) {
		e.log = log.With().Str("component", "policy_engine").Logger()
	}
}

// WithEngineWorkers sets how many goroutines evaluate paths
func WithEngineWorkers(n int) EngineOption {
	return func(e *PolicyEngine) {
		e.workers = n
	}
}

// WithScorer overrides the utility scorer
func WithScorer(s UtilityScorer) EngineOption {
	return func(e *PolicyEngine) {
		e.scorer = s
	}
}

// WithMaxRate sets the withdrawal cap applied to every evaluated policy.
// The cap is never lowered below the base config's own cap.
func WithMaxRate(rate float64) EngineOption {
	return func(e *PolicyEngine) {
		e.maxRate = rate
	}
}

// PolicyEngine evaluates withdrawal policies on one fixed set of return
// paths, so differences between policies come from the rules alone.
type PolicyEngine struct {
	base    simulation.FundConfig
	paths   []simulation.ReturnPath
	scorer  UtilityScorer
	maxRate float64
	workers int
	pool    *simulation.WorkerPool
	log     zerolog.Logger
}

// NewPolicyEngine draws cfg.NumPaths return paths up front
func NewPolicyEngine(ctx context.Context, cfg simulation.FundConfig, regimes *market_regime.RegimeSet, opts ...EngineOption) (*PolicyEngine, error) {
	e := &PolicyEngine{
		scorer:  DefaultUtilityScorer(),
		maxRate: DefaultEngineMaxRate,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.scorer.Validate(); err != nil {
		return nil, err
	}

	cfg.MaxWithdrawalRate = math.Max(cfg.MaxWithdrawalRate, e.maxRate)
	e.maxRate = cfg.MaxWithdrawalRate
	e.base = cfg
	e.pool = simulation.NewWorkerPool(e.workers)

	sim, err := simulation.NewMonteCarloSimulator(cfg, regimes, simulation.WithWorkers(e.workers))
	if err != nil {
		return nil, err
	}

	paths, err := sim.DrawPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to draw return paths: %w", err)
	}
	e.paths = paths

	e.log.Debug().
		Int("paths", len(paths)).
		Int("years", cfg.TotalYears).
		Float64("max_rate", e.maxRate).
		Msg("Policy engine ready")

	return e, nil
}

// Config returns the base configuration policies are evaluated against
func (e *PolicyEngine) Config() simulation.FundConfig {
	return e.base
}

// MaxRate returns the withdrawal cap in force during evaluation
func (e *PolicyEngine) MaxRate() float64 {
	return e.maxRate
}

// NumPaths returns the number of shared return paths
func (e *PolicyEngine) NumPaths() int {
	return len(e.paths)
}

// Scorer returns the utility scorer
func (e *PolicyEngine) Scorer() UtilityScorer {
	return e.scorer
}

// Evaluate runs spec on every shared path
func (e *PolicyEngine) Evaluate(ctx context.Context, spec PolicySpec) ([]PolicyOutcome, error) {
	cfg := e.base.WithRule(spec.Rule, spec.Rate)
	if spec.BaseAmount > 0 {
		cfg.MinWithdrawal = spec.BaseAmount
	}

	sim, err := simulation.NewPathSimulator(cfg)
	if err != nil {
		return nil, err
	}

	return simulation.RunIndexed(ctx, e.pool, len(e.paths), func(i int) (PolicyOutcome, error) {
		path, err := sim.Run(e.paths[i].Returns, e.paths[i].Regimes)
		if err != nil {
			return PolicyOutcome{}, err
		}
		return e.score(path), nil
	})
}

func (e *PolicyEngine) score(path simulation.PathResult) PolicyOutcome {
	monthly := path.MonthlyBenefit

	shortfall := 0
	for _, m := range monthly {
		if m < ShortfallMonthly {
			shortfall++
		}
	}

	// Only changes into paying years count toward volatility
	changes := make([]float64, 0, len(monthly))
	for t, d := range formulas.Diff(monthly) {
		if monthly[t+1] > 0 {
			changes = append(changes, d)
		}
	}

	sustainability := 0.0
	if path.Sustained(e.base.InitialCapital) {
		sustainability = 1.0
	}

	return PolicyOutcome{
		Path:           path,
		ShortfallYears: shortfall,
		Volatility:     formulas.PopStdDev(changes),
		Utility:        e.scorer.Score(monthly),
		Sustainability: sustainability,
	}
}
