package simulation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
)

// Service runs fund simulations with a shared regime set and worker budget
type Service struct {
	regimes *market_regime.RegimeSet
	workers int
	log     zerolog.Logger
}

// NewService creates a new simulation service
func NewService(regimes *market_regime.RegimeSet, workers int, log zerolog.Logger) *Service {
	if regimes == nil {
		regimes = market_regime.DefaultRegimeSet()
	}
	return &Service{
		regimes: regimes,
		workers: workers,
		log:     log.With().Str("service", "simulation").Logger(),
	}
}

// RegimeSet returns the regimes used for switching runs
func (s *Service) RegimeSet() *market_regime.RegimeSet {
	return s.regimes
}

// Workers returns the configured worker count
func (s *Service) Workers() int {
	return s.workers
}

// NewSimulator builds a simulator for cfg using the service's regimes and workers
func (s *Service) NewSimulator(cfg FundConfig) (*MonteCarloSimulator, error) {
	return NewMonteCarloSimulator(cfg, s.regimes, WithWorkers(s.workers), WithLogger(s.log))
}

// Simulate runs a full Monte Carlo projection for cfg
func (s *Service) Simulate(ctx context.Context, cfg FundConfig) (*AggregateResult, error) {
	sim, err := s.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	return sim.Simulate(ctx)
}
