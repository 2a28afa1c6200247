package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
)

// ErrInvalidBounds is returned for an empty or out-of-range rate interval
var ErrInvalidBounds = errors.New("invalid rate bounds")

// OptimizerConfig tunes the rate search
type OptimizerConfig struct {
	TargetSustainability float64 `json:"target_sustainability" yaml:"target_sustainability"`
	PenaltyWeight        float64 `json:"penalty_weight" yaml:"penalty_weight"`
	GridPoints           int     `json:"grid_points" yaml:"grid_points"`
	ReferenceYear        int     `json:"reference_year" yaml:"reference_year"`
	MaxEvaluations       int     `json:"max_evaluations" yaml:"max_evaluations"` // refinement budget
}

// DefaultOptimizerConfig targets 90% sustainability with a 1000x quadratic penalty
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		TargetSustainability: 0.90,
		PenaltyWeight:        1000,
		GridPoints:           9,
		ReferenceYear:        30,
		MaxEvaluations:       40,
	}
}

// OptimizationResult is the best rate found and its statistics
type OptimizationResult struct {
	Rule                    withdrawal.Rule `json:"rule" msgpack:"rule"`
	OptimalRate             float64         `json:"optimal_rate" msgpack:"optimal_rate"`
	ExpectedUtility         float64         `json:"expected_utility" msgpack:"expected_utility"`
	MedianUBIAtReference    float64         `json:"median_ubi_at_reference" msgpack:"median_ubi_at_reference"`
	ReferenceYear           int             `json:"reference_year" msgpack:"reference_year"`
	Sustainability          float64         `json:"sustainability" msgpack:"sustainability"`
	UBIVolatility           float64         `json:"ubi_volatility" msgpack:"ubi_volatility"`
	Objective               float64         `json:"objective" msgpack:"objective"`
	SustainabilityShortfall float64         `json:"sustainability_shortfall" msgpack:"sustainability_shortfall"`
	MeetsConstraint         bool            `json:"meets_constraint" msgpack:"meets_constraint"`
	Converged               bool            `json:"converged" msgpack:"converged"`
	Status                  string          `json:"status" msgpack:"status"`
	Evaluations             int             `json:"evaluations" msgpack:"evaluations"`
}

// RateOptimizer searches a withdrawal rate that maximises expected utility
// with a soft sustainability constraint.
type RateOptimizer struct {
	engine *PolicyEngine
	cfg    OptimizerConfig
	log    zerolog.Logger
}

// NewRateOptimizer creates an optimizer over an engine's shared paths
func NewRateOptimizer(engine *PolicyEngine, cfg OptimizerConfig, log zerolog.Logger) (*RateOptimizer, error) {
	if engine == nil {
		return nil, errors.New("policy engine is required")
	}
	if cfg.GridPoints < 2 {
		cfg.GridPoints = 2
	}
	if cfg.TargetSustainability < 0 || cfg.TargetSustainability > 1 {
		return nil, fmt.Errorf("target sustainability %v outside [0,1]", cfg.TargetSustainability)
	}
	if cfg.PenaltyWeight < 0 {
		return nil, fmt.Errorf("penalty weight %v is negative", cfg.PenaltyWeight)
	}
	return &RateOptimizer{
		engine: engine,
		cfg:    cfg,
		log:    log.With().Str("component", "rate_optimizer").Logger(),
	}, nil
}

// Penalty is the quadratic shortfall charge applied below the target
func (o *RateOptimizer) Penalty(sustainability float64) float64 {
	if sustainability >= o.cfg.TargetSustainability {
		return 0
	}
	gap := o.cfg.TargetSustainability - sustainability
	return o.cfg.PenaltyWeight * gap * gap
}

type candidate struct {
	rate      float64
	objective float64
	summary   PolicySummary
}

// FindOptimalRate scans a coarse grid over [lo, hi] and then refines the
// best grid point with Nelder-Mead. Every evaluated rate is remembered and
// the best one is returned even if the refinement fails to converge.
func (o *RateOptimizer) FindOptimalRate(ctx context.Context, rule withdrawal.Rule, lo, hi float64) (*OptimizationResult, error) {
	if !rule.Valid() {
		return nil, fmt.Errorf("%w: %q", withdrawal.ErrUnknownRule, rule)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || lo < 0 || hi < lo || hi > o.engine.MaxRate() {
		return nil, fmt.Errorf("%w: [%v, %v] must lie within [0, %v]", ErrInvalidBounds, lo, hi, o.engine.MaxRate())
	}

	seen := make(map[float64]*candidate)
	var best *candidate
	var evalErr error

	evaluate := func(rate float64) float64 {
		rate = math.Min(math.Max(rate, lo), hi)
		if c, ok := seen[rate]; ok {
			return c.objective
		}
		if evalErr != nil {
			return math.Inf(1)
		}

		spec := PolicySpec{Rule: rule, Rate: rate}
		outcomes, err := o.engine.Evaluate(ctx, spec)
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}

		s := Summarize(spec, outcomes, []int{o.cfg.ReferenceYear})
		c := &candidate{
			rate:      rate,
			objective: -(s.ExpectedUtility - o.Penalty(s.Sustainability)),
			summary:   s,
		}
		seen[rate] = c
		if best == nil || c.objective < best.objective {
			best = c
		}

		o.log.Debug().
			Float64("rate", rate).
			Float64("objective", c.objective).
			Float64("sustainability", s.Sustainability).
			Msg("Rate evaluated")

		return c.objective
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return evaluate(x[0]) },
	}

	// Coarse grid
	grid := floats.Span(make([]float64, o.cfg.GridPoints), lo, hi)
	_, err := optimize.Minimize(problem, []float64{lo}, &optimize.Settings{Converger: optimize.NeverTerminate{}},
		&optimize.ListSearch{Locs: mat.NewDense(len(grid), 1, grid)})
	if evalErr != nil {
		return nil, fmt.Errorf("rate search failed: %w", evalErr)
	}
	if best == nil {
		return nil, fmt.Errorf("rate search failed: no rate evaluated: %v", err)
	}
	if err != nil {
		o.log.Warn().Err(err).Msg("Grid scan ended early")
	}

	status := optimize.MethodConverge
	converged := true

	// Refinement around the best grid point
	if hi > lo && o.cfg.MaxEvaluations > 0 {
		step := (hi - lo) / float64(o.cfg.GridPoints-1)
		result, err := optimize.Minimize(problem, []float64{best.rate}, &optimize.Settings{
			FuncEvaluations: o.cfg.MaxEvaluations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-12,
				Iterations: 10,
			},
		}, &optimize.NelderMead{SimplexSize: step / 2})
		if evalErr != nil {
			return nil, fmt.Errorf("rate search failed: %w", evalErr)
		}

		successStatuses := map[optimize.Status]bool{
			optimize.Success:             true,
			optimize.GradientThreshold:   true,
			optimize.FunctionConvergence: true,
			optimize.MethodConverge:      true,
		}
		switch {
		case err != nil:
			converged = false
			status = optimize.Failure
			o.log.Warn().Err(err).Msg("Rate refinement failed, keeping best evaluated rate")
		default:
			status = result.Status
			converged = successStatuses[result.Status]
		}
	}

	s := best.summary
	res := &OptimizationResult{
		Rule:                 rule,
		OptimalRate:          best.rate,
		ExpectedUtility:      s.ExpectedUtility,
		MedianUBIAtReference: s.MedianMonthlyUBI[o.cfg.ReferenceYear],
		ReferenceYear:        o.cfg.ReferenceYear,
		Sustainability:       s.Sustainability,
		UBIVolatility:        s.UBIVolatility,
		Objective:            best.objective,
		MeetsConstraint:      s.Sustainability >= o.cfg.TargetSustainability,
		Converged:            converged,
		Status:               status.String(),
		Evaluations:          len(seen),
	}
	if !res.MeetsConstraint {
		res.SustainabilityShortfall = o.cfg.TargetSustainability - s.Sustainability
	}

	o.log.Info().
		Str("rule", rule.String()).
		Float64("optimal_rate", res.OptimalRate).
		Float64("sustainability", res.Sustainability).
		Float64("shortfall", res.SustainabilityShortfall).
		Int("evaluations", res.Evaluations).
		Bool("converged", res.Converged).
		Msg("Rate optimization completed")

	return res, nil
}
