package withdrawal

import (
	"fmt"
	"math"

	"github.com/j-alcock/ss-extension-act-sub000/pkg/formulas"
)

// LiabilityParams describes the UBI obligation the liability-driven rule
// measures the fund against. The rule's base rate is Params.Rate.
type LiabilityParams struct {
	Population        float64 `json:"population" yaml:"population"`
	AnnualBenefit     float64 `json:"annual_benefit" yaml:"annual_benefit"` // per person, dollars
	DiscountRate      float64 `json:"discount_rate" yaml:"discount_rate"`
	HorizonYears      int     `json:"horizon_years" yaml:"horizon_years"`
	FloorRate         float64 `json:"floor_rate" yaml:"floor_rate"`
	CeilingRate       float64 `json:"ceiling_rate" yaml:"ceiling_rate"`
	FundedRatioTarget float64 `json:"funded_ratio_target" yaml:"funded_ratio_target"`
}

// DefaultLiabilityParams values a 30-year $1,000/month benefit for 330M people
// discounted at the mean equity return.
func DefaultLiabilityParams() LiabilityParams {
	return LiabilityParams{
		Population:        330e6,
		AnnualBenefit:     12000,
		DiscountRate:      0.065,
		HorizonYears:      30,
		FloorRate:         0.02,
		CeilingRate:       0.05,
		FundedRatioTarget: 1.5,
	}
}

// PresentValue returns the discounted value of the obligation stream
func (l LiabilityParams) PresentValue() float64 {
	return l.Population * l.AnnualBenefit * formulas.AnnuityFactor(l.DiscountRate, l.HorizonYears)
}

// Params configures a withdrawal rule
type Params struct {
	Rate              float64         `json:"rate" yaml:"rate"`
	MaxRate           float64         `json:"max_rate" yaml:"max_rate"`
	AccumulationYears int             `json:"accumulation_years" yaml:"accumulation_years"`
	Inflation         float64         `json:"inflation" yaml:"inflation"`
	BaseAmount        float64         `json:"base_amount" yaml:"base_amount"`     // constant_real; 0 means fund*rate at first payout
	HybridWeight      float64         `json:"hybrid_weight" yaml:"hybrid_weight"` // weight on last year's payout
	Alpha             float64         `json:"alpha" yaml:"alpha"`                 // smoothed; weight on the new target
	RatchetUpPct      float64         `json:"ratchet_up_pct" yaml:"ratchet_up_pct"`
	Liability         LiabilityParams `json:"liability" yaml:"liability"`
}

// DefaultParams returns 3.5% of fund, capped at 5%, after 20 years of accumulation
func DefaultParams() Params {
	return Params{
		Rate:              0.035,
		MaxRate:           0.05,
		AccumulationYears: 20,
		Inflation:         0.02,
		HybridWeight:      0.7,
		Alpha:             0.3,
		RatchetUpPct:      0.03,
		Liability:         DefaultLiabilityParams(),
	}
}

// Validate checks parameter ranges
func (p Params) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{p.Rate >= 0, fmt.Sprintf("rate %v is negative", p.Rate)},
		{p.MaxRate >= 0, fmt.Sprintf("max rate %v is negative", p.MaxRate)},
		{p.Rate <= p.MaxRate, fmt.Sprintf("rate %v exceeds max rate %v", p.Rate, p.MaxRate)},
		{p.AccumulationYears >= 0, fmt.Sprintf("accumulation years %d is negative", p.AccumulationYears)},
		{p.Inflation > -1, fmt.Sprintf("inflation %v must exceed -100%%", p.Inflation)},
		{p.BaseAmount >= 0, fmt.Sprintf("base amount %v is negative", p.BaseAmount)},
		{p.HybridWeight >= 0 && p.HybridWeight <= 1, fmt.Sprintf("hybrid weight %v outside [0,1]", p.HybridWeight)},
		{p.Alpha >= 0 && p.Alpha <= 1, fmt.Sprintf("alpha %v outside [0,1]", p.Alpha)},
		{p.RatchetUpPct >= 0, fmt.Sprintf("ratchet step %v is negative", p.RatchetUpPct)},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidParams, c.msg)
		}
	}

	for _, v := range []float64{p.Rate, p.MaxRate, p.Inflation, p.BaseAmount, p.Alpha, p.HybridWeight, p.RatchetUpPct} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidParams)
		}
	}
	return nil
}

func (l LiabilityParams) validate() error {
	switch {
	case l.Population <= 0:
		return fmt.Errorf("%w: liability population %v must be positive", ErrInvalidParams, l.Population)
	case l.AnnualBenefit < 0:
		return fmt.Errorf("%w: liability benefit %v is negative", ErrInvalidParams, l.AnnualBenefit)
	case l.DiscountRate <= -1:
		return fmt.Errorf("%w: discount rate %v must exceed -100%%", ErrInvalidParams, l.DiscountRate)
	case l.HorizonYears <= 0:
		return fmt.Errorf("%w: liability horizon %d must be positive", ErrInvalidParams, l.HorizonYears)
	case l.FloorRate < 0 || l.CeilingRate < l.FloorRate:
		return fmt.Errorf("%w: liability rates floor=%v ceiling=%v", ErrInvalidParams, l.FloorRate, l.CeilingRate)
	case l.FundedRatioTarget <= 1:
		return fmt.Errorf("%w: funded ratio target %v must exceed 1", ErrInvalidParams, l.FundedRatioTarget)
	}
	return nil
}
