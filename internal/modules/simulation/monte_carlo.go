package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
)

// ReturnPath is one drawn return sequence with its regime labels
type ReturnPath struct {
	Returns []float64
	Regimes []market_regime.RegimeName
}

// Option configures a MonteCarloSimulator
type Option func(*MonteCarloSimulator)

// WithLogger sets the simulator's logger
func WithLogger(log zerolog.Logger) Option {
	return func(m *MonteCarloSimulator) {
		m.log = log.With().Str("component", "monte_carlo").Logger()
	}
}

// WithWorkers sets how many goroutines simulate paths
func WithWorkers(n int) Option {
	return func(m *MonteCarloSimulator) {
		m.pool = NewWorkerPool(n)
	}
}

// WithCalibration overrides the i.i.d. return distribution
func WithCalibration(c market_regime.Calibration) Option {
	return func(m *MonteCarloSimulator) {
		m.calibration = c
	}
}

// MonteCarloSimulator runs many independent fund paths and aggregates them.
//
// Path i draws its returns from its own PCG stream seeded with
// (cfg.Seed, i), so a run is reproducible from the seed and the result is
// identical for any number of workers.
type MonteCarloSimulator struct {
	cfg         FundConfig
	regimes     *market_regime.RegimeSet
	calibration market_regime.Calibration
	generator   *market_regime.ReturnGenerator
	path        *PathSimulator
	pool        *WorkerPool
	log         zerolog.Logger
}

// NewMonteCarloSimulator validates everything up front; no path runs
// until Simulate is called.
func NewMonteCarloSimulator(cfg FundConfig, regimes *market_regime.RegimeSet, opts ...Option) (*MonteCarloSimulator, error) {
	if regimes == nil {
		regimes = market_regime.DefaultRegimeSet()
	}

	m := &MonteCarloSimulator{
		cfg:         cfg,
		regimes:     regimes,
		calibration: market_regime.DefaultCalibration(),
		pool:        NewWorkerPool(0),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	path, err := NewPathSimulator(cfg)
	if err != nil {
		return nil, err
	}
	m.path = path

	gen, err := market_regime.NewReturnGenerator(regimes, m.calibration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	m.generator = gen

	return m, nil
}

// Config returns the simulator's configuration
func (m *MonteCarloSimulator) Config() FundConfig {
	return m.cfg
}

// Source returns the random stream for path i
func (m *MonteCarloSimulator) Source(i int) rand.Source {
	return rand.NewPCG(m.cfg.Seed, uint64(i))
}

// DrawPath draws the return sequence for path i
func (m *MonteCarloSimulator) DrawPath(i int) ReturnPath {
	returns, regimes := m.generator.Generate(m.cfg.TotalYears, m.cfg.UseRegimeSwitching, m.Source(i))
	return ReturnPath{Returns: returns, Regimes: regimes}
}

// DrawPaths draws every path's returns without simulating the fund.
// Callers evaluating several policies use this to compare them on
// identical markets.
func (m *MonteCarloSimulator) DrawPaths(ctx context.Context) ([]ReturnPath, error) {
	return RunIndexed(ctx, m.pool, m.cfg.NumPaths, func(i int) (ReturnPath, error) {
		return m.DrawPath(i), nil
	})
}

// Simulate runs all paths and aggregates them
func (m *MonteCarloSimulator) Simulate(ctx context.Context) (*AggregateResult, error) {
	start := time.Now()

	m.log.Debug().
		Int("paths", m.cfg.NumPaths).
		Int("years", m.cfg.TotalYears).
		Str("rule", m.cfg.WithdrawalRule.String()).
		Bool("regime_switching", m.cfg.UseRegimeSwitching).
		Int("workers", m.pool.Size()).
		Msg("Starting Monte Carlo simulation")

	paths, err := RunIndexed(ctx, m.pool, m.cfg.NumPaths, func(i int) (PathResult, error) {
		rp := m.DrawPath(i)
		return m.path.Run(rp.Returns, rp.Regimes)
	})
	if err != nil {
		return nil, fmt.Errorf("monte carlo simulation failed: %w", err)
	}

	result := Aggregate(m.cfg, paths)

	m.log.Info().
		Int("paths", m.cfg.NumPaths).
		Dur("elapsed", time.Since(start)).
		Float64("prob_ruin", result.ProbRuin).
		Float64("prob_success", result.ProbSuccess).
		Float64("max_drawdown_median", result.MaxDrawdownMedian).
		Msg("Monte Carlo simulation completed")

	return result, nil
}
