// Package market_regime models the Markov-switching market states that drive
// annual fund returns.
package market_regime

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RegimeName identifies a market state
type RegimeName string

const (
	// RegimeBull - sustained above-trend returns
	RegimeBull RegimeName = "bull"
	// RegimeBear - flat to negative returns with elevated volatility
	RegimeBear RegimeName = "bear"
	// RegimeCrisis - short, severe drawdowns
	RegimeCrisis RegimeName = "crisis"
	// RegimeNormal labels every year when regime switching is disabled
	RegimeNormal RegimeName = "normal"
)

// transitionTolerance is how far a transition row may drift from 1.0
const transitionTolerance = 1e-6

// ErrInvalidRegime is returned when a regime set fails validation
var ErrInvalidRegime = errors.New("invalid market regime")

// MarketRegime is a named market state with its own return distribution
// and transition probabilities to every state (itself included).
type MarketRegime struct {
	Name            RegimeName             `json:"name" yaml:"name" msgpack:"name"`
	MeanReturn      float64                `json:"mean_return" yaml:"mean_return" msgpack:"mean_return"`
	Volatility      float64                `json:"volatility" yaml:"volatility" msgpack:"volatility"`
	DurationMean    float64                `json:"duration_mean" yaml:"duration_mean" msgpack:"duration_mean"` // informational, years
	TransitionProbs map[RegimeName]float64 `json:"transition_probs" yaml:"transition_probs" msgpack:"transition_probs"`
}

// DefaultRegimes returns the bull/bear/crisis calibration used for fund projections
func DefaultRegimes() []MarketRegime {
	return []MarketRegime{
		{
			Name:         RegimeBull,
			MeanReturn:   0.12,
			Volatility:   0.12,
			DurationMean: 6.0,
			TransitionProbs: map[RegimeName]float64{
				RegimeBull: 0.85, RegimeBear: 0.12, RegimeCrisis: 0.03,
			},
		},
		{
			Name:         RegimeBear,
			MeanReturn:   -0.02,
			Volatility:   0.22,
			DurationMean: 2.0,
			TransitionProbs: map[RegimeName]float64{
				RegimeBull: 0.40, RegimeBear: 0.50, RegimeCrisis: 0.10,
			},
		},
		{
			Name:         RegimeCrisis,
			MeanReturn:   -0.25,
			Volatility:   0.40,
			DurationMean: 0.75,
			TransitionProbs: map[RegimeName]float64{
				RegimeBull: 0.30, RegimeBear: 0.50, RegimeCrisis: 0.20,
			},
		},
	}
}

// RegimeSet is a validated, immutable collection of regimes.
// States keep their declaration order, and transition rows are stored in
// that order so sampling never depends on map iteration.
type RegimeSet struct {
	initial     int
	regimes     []MarketRegime
	index       map[RegimeName]int
	transitions [][]float64
}

// NewRegimeSet validates the regimes and freezes them into a RegimeSet.
// Every transition row must reference known states only and sum to 1.
func NewRegimeSet(initial RegimeName, regimes ...MarketRegime) (*RegimeSet, error) {
	if len(regimes) == 0 {
		return nil, fmt.Errorf("%w: no regimes configured", ErrInvalidRegime)
	}

	s := &RegimeSet{
		regimes: make([]MarketRegime, len(regimes)),
		index:   make(map[RegimeName]int, len(regimes)),
	}

	for i, r := range regimes {
		if r.Name == "" || r.Name == RegimeNormal {
			return nil, fmt.Errorf("%w: regime %d has reserved or empty name %q", ErrInvalidRegime, i, r.Name)
		}
		if _, dup := s.index[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate regime %q", ErrInvalidRegime, r.Name)
		}
		if r.Volatility < 0 || math.IsNaN(r.Volatility) {
			return nil, fmt.Errorf("%w: regime %q has negative volatility %v", ErrInvalidRegime, r.Name, r.Volatility)
		}
		s.index[r.Name] = i
		s.regimes[i] = copyRegime(r)
	}

	start, ok := s.index[initial]
	if !ok {
		return nil, fmt.Errorf("%w: initial regime %q is not configured", ErrInvalidRegime, initial)
	}
	s.initial = start

	s.transitions = make([][]float64, len(regimes))
	for i, r := range s.regimes {
		row := make([]float64, len(regimes))
		sum := 0.0
		for target, p := range r.TransitionProbs {
			j, ok := s.index[target]
			if !ok {
				return nil, fmt.Errorf("%w: regime %q transitions to unknown regime %q", ErrInvalidRegime, r.Name, target)
			}
			if p < 0 || p > 1 || math.IsNaN(p) {
				return nil, fmt.Errorf("%w: regime %q has transition probability %v to %q", ErrInvalidRegime, r.Name, p, target)
			}
			row[j] = p
			sum += p
		}
		if math.Abs(sum-1.0) > transitionTolerance {
			return nil, fmt.Errorf("%w: transition probabilities for %q sum to %v, not 1", ErrInvalidRegime, r.Name, sum)
		}
		s.transitions[i] = row
	}

	return s, nil
}

// MustNewRegimeSet is NewRegimeSet for static configuration; it panics on error
func MustNewRegimeSet(initial RegimeName, regimes ...MarketRegime) *RegimeSet {
	s, err := NewRegimeSet(initial, regimes...)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultRegimeSet returns the default regimes starting in bull
func DefaultRegimeSet() *RegimeSet {
	return MustNewRegimeSet(RegimeBull, DefaultRegimes()...)
}

// Initial returns the state every switching path starts in
func (s *RegimeSet) Initial() RegimeName {
	return s.regimes[s.initial].Name
}

// Len returns the number of states
func (s *RegimeSet) Len() int {
	return len(s.regimes)
}

// Regimes returns a copy of the configured regimes in declaration order
func (s *RegimeSet) Regimes() []MarketRegime {
	out := make([]MarketRegime, len(s.regimes))
	for i, r := range s.regimes {
		out[i] = copyRegime(r)
	}
	return out
}

// Regime looks up a regime by name
func (s *RegimeSet) Regime(name RegimeName) (MarketRegime, bool) {
	i, ok := s.index[name]
	if !ok {
		return MarketRegime{}, false
	}
	return copyRegime(s.regimes[i]), true
}

// TransitionSum returns the total outgoing probability of a regime
func (s *RegimeSet) TransitionSum(name RegimeName) float64 {
	i, ok := s.index[name]
	if !ok {
		return 0
	}
	sum := 0.0
	for _, p := range s.transitions[i] {
		sum += p
	}
	return sum
}

// StationaryDistribution returns the long-run share of years spent in each
// regime, found by power iteration on the transition matrix.
func (s *RegimeSet) StationaryDistribution() map[RegimeName]float64 {
	n := len(s.regimes)
	p := mat.NewDense(n, n, nil)
	for i, row := range s.transitions {
		p.SetRow(i, row)
	}

	pi := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		pi.SetVec(i, 1/float64(n))
	}

	next := mat.NewVecDense(n, nil)
	for iter := 0; iter < 10000; iter++ {
		next.MulVec(p.T(), pi)

		delta := 0.0
		for i := 0; i < n; i++ {
			delta += math.Abs(next.AtVec(i) - pi.AtVec(i))
		}
		pi.CopyVec(next)
		if delta < 1e-14 {
			break
		}
	}

	out := make(map[RegimeName]float64, n)
	for i, r := range s.regimes {
		out[r.Name] = pi.AtVec(i)
	}
	return out
}

func copyRegime(r MarketRegime) MarketRegime {
	probs := make(map[RegimeName]float64, len(r.TransitionProbs))
	for k, v := range r.TransitionProbs {
		probs[k] = v
	}
	r.TransitionProbs = probs
	return r
}
