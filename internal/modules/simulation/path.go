package simulation

import (
	"fmt"
	"math"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
	"github.com/j-alcock/ss-extension-act-sub000/pkg/formulas"
)

// PathResult is one simulated fund trajectory.
// FundValues has TotalYears+1 entries, every other series TotalYears.
type PathResult struct {
	FundValues       []float64                   `json:"fund_values" msgpack:"fund_values"`
	Withdrawals      []float64                   `json:"withdrawals" msgpack:"withdrawals"`
	Contributions    []float64                   `json:"contributions" msgpack:"contributions"`
	Returns          []float64                   `json:"returns" msgpack:"returns"`
	BenefitPerCapita []float64                   `json:"benefit_per_capita" msgpack:"benefit_per_capita"` // annual dollars per person
	MonthlyBenefit   []float64                   `json:"monthly_benefit" msgpack:"monthly_benefit"`
	Regimes          []market_regime.RegimeName  `json:"regimes,omitempty" msgpack:"regimes,omitempty"`
}

// FinalValue returns the fund value at the end of the horizon
func (p PathResult) FinalValue() float64 {
	if len(p.FundValues) == 0 {
		return 0
	}
	return p.FundValues[len(p.FundValues)-1]
}

// MaxDrawdown returns the path's largest peak-to-trough fund decline
func (p PathResult) MaxDrawdown() float64 {
	return formulas.MaxDrawdown(p.FundValues)
}

// Sustained reports whether the fund ended above half its initial capital
func (p PathResult) Sustained(initialCapital float64) bool {
	return p.FinalValue() > 0.5*initialCapital
}

// PathSimulator turns one realised return sequence into a fund trajectory
type PathSimulator struct {
	cfg           FundConfig
	policy        *withdrawal.Policy
	contributions []float64
	population    []float64
}

// NewPathSimulator validates cfg and precomputes the contribution and
// population schedules shared by every path.
func NewPathSimulator(cfg FundConfig) (*PathSimulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	s := &PathSimulator{
		cfg:           cfg,
		policy:        policy,
		contributions: make([]float64, cfg.TotalYears),
		population:    make([]float64, cfg.TotalYears),
	}
	for t := 0; t < cfg.TotalYears; t++ {
		s.contributions[t] = cfg.Contribution(t)
		s.population[t] = cfg.Population(t)
	}
	return s, nil
}

// Config returns the simulator's configuration
func (s *PathSimulator) Config() FundConfig {
	return s.cfg
}

// Policy returns the withdrawal policy in use
func (s *PathSimulator) Policy() *withdrawal.Policy {
	return s.policy
}

// Run simulates one path. Each year the contribution is added and the
// withdrawal taken before that year's return is applied; the fund is
// floored at zero both before and after the return. regimes may be nil.
func (s *PathSimulator) Run(returns []float64, regimes []market_regime.RegimeName) (PathResult, error) {
	n := s.cfg.TotalYears
	if len(returns) != n {
		return PathResult{}, fmt.Errorf("%w: got %d returns for %d years", ErrInvalidConfig, len(returns), n)
	}

	res := PathResult{
		FundValues:       make([]float64, n+1),
		Withdrawals:      make([]float64, n),
		Contributions:    make([]float64, n),
		Returns:          make([]float64, n),
		BenefitPerCapita: make([]float64, n),
		MonthlyBenefit:   make([]float64, n),
	}
	copy(res.Returns, returns)
	if s.cfg.UseRegimeSwitching && len(regimes) == n {
		res.Regimes = make([]market_regime.RegimeName, n)
		copy(res.Regimes, regimes)
	}

	res.FundValues[0] = s.cfg.InitialCapital
	schedule := s.policy.Start()

	for t := 0; t < n; t++ {
		fund := res.FundValues[t]
		prev := 0.0
		if t > 0 {
			prev = res.Withdrawals[t-1]
		}

		contribution := s.contributions[t]
		w := schedule.Withdraw(fund, t, prev)

		preReturn := fund + contribution - w
		if preReturn < 0 {
			preReturn = 0
		}

		res.Contributions[t] = contribution
		res.Withdrawals[t] = w
		// A draw below -100% wipes the fund out rather than making it negative
		res.FundValues[t+1] = math.Max(preReturn*(1+returns[t]), 0)

		if w > 0 {
			res.BenefitPerCapita[t] = w / s.population[t]
			res.MonthlyBenefit[t] = res.BenefitPerCapita[t] / 12
		}
	}

	return res, nil
}
