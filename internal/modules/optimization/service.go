package optimization

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
)

// Default search interval for withdrawal rates
const (
	DefaultMinRate = 0.02
	DefaultMaxRate = 0.06
)

// Service compares policies and optimises withdrawal rates
type Service struct {
	regimes *market_regime.RegimeSet
	workers int
	cfg     OptimizerConfig
	log     zerolog.Logger
}

// NewService creates a new optimization service
func NewService(regimes *market_regime.RegimeSet, workers int, cfg OptimizerConfig, log zerolog.Logger) *Service {
	if regimes == nil {
		regimes = market_regime.DefaultRegimeSet()
	}
	return &Service{
		regimes: regimes,
		workers: workers,
		cfg:     cfg,
		log:     log.With().Str("service", "optimization").Logger(),
	}
}

// NewEngine draws the shared return paths for fund
func (s *Service) NewEngine(ctx context.Context, fund simulation.FundConfig) (*PolicyEngine, error) {
	return NewPolicyEngine(ctx, fund, s.regimes, WithEngineWorkers(s.workers), WithEngineLogger(s.log))
}

// Optimize finds the best rate for rule within [lo, hi].
// Zero bounds fall back to the default 2%-6% interval.
func (s *Service) Optimize(ctx context.Context, fund simulation.FundConfig, rule withdrawal.Rule, lo, hi float64) (*OptimizationResult, error) {
	if lo == 0 && hi == 0 {
		lo, hi = DefaultMinRate, DefaultMaxRate
	}

	engine, err := s.NewEngine(ctx, fund)
	if err != nil {
		return nil, err
	}
	opt, err := NewRateOptimizer(engine, s.cfg, s.log)
	if err != nil {
		return nil, err
	}
	return opt.FindOptimalRate(ctx, rule, lo, hi)
}

// Compare evaluates specs side by side on identical return paths
func (s *Service) Compare(ctx context.Context, fund simulation.FundConfig, specs []PolicySpec, referenceYears []int) ([]PolicySummary, error) {
	engine, err := s.NewEngine(ctx, fund)
	if err != nil {
		return nil, err
	}
	return engine.Compare(ctx, specs, referenceYears)
}
