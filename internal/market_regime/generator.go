package market_regime

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Calibration is the single return distribution used when regime
// switching is disabled (annual real equity return).
type Calibration struct {
	MeanReturn float64 `json:"mean_return" yaml:"mean_return"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
}

// DefaultCalibration returns 6.5% mean real return with 17% volatility
func DefaultCalibration() Calibration {
	return Calibration{MeanReturn: 0.065, Volatility: 0.17}
}

// ReturnGenerator draws annual return sequences
type ReturnGenerator struct {
	set         *RegimeSet
	calibration Calibration
}

// NewReturnGenerator creates a generator over a validated regime set
func NewReturnGenerator(set *RegimeSet, calibration Calibration) (*ReturnGenerator, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: regime set is nil", ErrInvalidRegime)
	}
	if calibration.Volatility < 0 || math.IsNaN(calibration.Volatility) {
		return nil, fmt.Errorf("%w: calibration volatility %v is negative", ErrInvalidRegime, calibration.Volatility)
	}
	return &ReturnGenerator{set: set, calibration: calibration}, nil
}

// RegimeSet returns the regimes the generator switches between
func (g *ReturnGenerator) RegimeSet() *RegimeSet {
	return g.set
}

// Generate draws nYears annual returns from src.
//
// With switching the chain starts in the set's initial regime. Each year's
// return is drawn from the regime active during that year, and only then is
// the next regime sampled. Without switching, returns are i.i.d. normal from
// the calibration and every label is RegimeNormal.
func (g *ReturnGenerator) Generate(nYears int, useSwitching bool, src rand.Source) ([]float64, []RegimeName) {
	if nYears <= 0 {
		return []float64{}, []RegimeName{}
	}

	returns := make([]float64, nYears)
	labels := make([]RegimeName, nYears)

	if !useSwitching {
		dist := distuv.Normal{
			Mu:    g.calibration.MeanReturn,
			Sigma: g.calibration.Volatility,
			Src:   src,
		}
		for t := range returns {
			returns[t] = dist.Rand()
			labels[t] = RegimeNormal
		}
		return returns, labels
	}

	// One sampler per state for the whole path
	next := make([]distuv.Categorical, g.set.Len())
	for i, row := range g.set.transitions {
		next[i] = distuv.NewCategorical(row, src)
	}

	state := g.set.initial
	for t := 0; t < nYears; t++ {
		r := g.set.regimes[state]
		labels[t] = r.Name
		returns[t] = distuv.Normal{Mu: r.MeanReturn, Sigma: r.Volatility, Src: src}.Rand()
		state = int(next[state].Rand())
	}

	return returns, labels
}
