package withdrawal

import (
	"fmt"
	"math"
)

// Policy is a validated withdrawal rule with its parameters.
// A Policy is immutable and safe to share between goroutines; per-path
// state lives in the Schedule returned by Start.
type Policy struct {
	rule        Rule
	params      Params
	liabilityPV float64
}

// New validates the rule and parameters and builds a Policy
func New(rule Rule, params Params) (*Policy, error) {
	if !rule.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	p := &Policy{rule: rule, params: params}
	if rule == LiabilityDriven {
		if err := params.Liability.validate(); err != nil {
			return nil, err
		}
		p.liabilityPV = params.Liability.PresentValue()
	}
	return p, nil
}

// Rule returns the policy's rule
func (p *Policy) Rule() Rule {
	return p.rule
}

// Params returns a copy of the policy's parameters
func (p *Policy) Params() Params {
	return p.params
}

// LiabilityPV returns the present value of the UBI obligation.
// It is zero for rules other than LiabilityDriven.
func (p *Policy) LiabilityPV() float64 {
	return p.liabilityPV
}

// FundedRatio is fund value over the obligation's present value (floored at 1)
func (p *Policy) FundedRatio(fundValue float64) float64 {
	return fundValue / math.Max(p.liabilityPV, 1)
}

// LiabilityRate maps a funded ratio onto a withdrawal rate:
//
//	ratio >= target       -> ceiling
//	1 <= ratio < target   -> base..ceiling
//	0.5 <= ratio < 1      -> floor..base
//	ratio < 0.5           -> floor
func (p *Policy) LiabilityRate(fundedRatio float64) float64 {
	l := p.params.Liability
	base := p.params.Rate

	switch {
	case fundedRatio >= l.FundedRatioTarget:
		return l.CeilingRate
	case fundedRatio >= 1.0:
		frac := (fundedRatio - 1.0) / (l.FundedRatioTarget - 1.0)
		return base + frac*(l.CeilingRate-base)
	case fundedRatio >= 0.5:
		frac := (fundedRatio - 0.5) / 0.5
		return l.FloorRate + frac*(base-l.FloorRate)
	default:
		return l.FloorRate
	}
}

// Start begins a new path. Each simulated path needs its own Schedule.
func (p *Policy) Start() *Schedule {
	return &Schedule{policy: p}
}

// Schedule computes successive withdrawals along one path
type Schedule struct {
	policy  *Policy
	base    float64
	baseSet bool
}

// Withdraw returns the withdrawal for a year given the fund value at the
// start of that year and the previous year's withdrawal. It is zero during
// accumulation and never exceeds fundValue*MaxRate.
func (s *Schedule) Withdraw(fundValue float64, year int, prevWithdrawal float64) float64 {
	p := s.policy.params
	if year < p.AccumulationYears {
		return 0
	}
	return Clamp(s.raw(fundValue, year, prevWithdrawal), fundValue, p.MaxRate)
}

func (s *Schedule) raw(fundValue float64, year int, prev float64) float64 {
	p := s.policy.params
	target := fundValue * p.Rate

	switch s.policy.rule {
	case PercentOfFund:
		return target

	case ConstantReal:
		if !s.baseSet {
			s.base = p.BaseAmount
			if s.base <= 0 {
				s.base = target
			}
			s.baseSet = true
		}
		return s.base * math.Pow(1+p.Inflation, float64(year-p.AccumulationYears))

	case Hybrid:
		if prev > 0 {
			return p.HybridWeight*prev*(1+p.Inflation) + (1-p.HybridWeight)*target
		}
		return target

	case Smoothed:
		if prev > 0 {
			return p.Alpha*target + (1-p.Alpha)*prev*(1+p.Inflation)
		}
		return target

	case LiabilityDriven:
		return fundValue * s.policy.LiabilityRate(s.policy.FundedRatio(fundValue))

	case Ratcheted:
		if prev > 0 {
			return math.Min(math.Max(target, prev), prev*(1+p.RatchetUpPct))
		}
		return target
	}

	return 0
}

// Clamp caps a raw withdrawal to [0, fundValue*maxRate]
func Clamp(raw, fundValue, maxRate float64) float64 {
	return math.Max(0, math.Min(raw, fundValue*maxRate))
}
