package optimization

import (
	"context"
	"fmt"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
	"github.com/j-alcock/ss-extension-act-sub000/pkg/formulas"
)

// DefaultReferenceYears are the years reported in comparison tables
var DefaultReferenceYears = []int{30, 40}

// PolicySummary aggregates the outcomes of one policy across paths
type PolicySummary struct {
	Rule               withdrawal.Rule `json:"rule" msgpack:"rule"`
	Label              string          `json:"label" msgpack:"label"`
	Rate               float64         `json:"rate" msgpack:"rate"`
	ExpectedUtility    float64         `json:"expected_utility" msgpack:"expected_utility"`
	MedianMonthlyUBI   map[int]float64 `json:"median_monthly_ubi" msgpack:"median_monthly_ubi"` // keyed by year
	Sustainability     float64         `json:"sustainability" msgpack:"sustainability"`
	UBIVolatility      float64         `json:"ubi_volatility" msgpack:"ubi_volatility"`
	MeanShortfallYears float64         `json:"mean_shortfall_years" msgpack:"mean_shortfall_years"`
}

// Summarize reduces outcomes to means, plus the median monthly benefit in
// each reference year inside the horizon.
func Summarize(spec PolicySpec, outcomes []PolicyOutcome, referenceYears []int) PolicySummary {
	n := len(outcomes)
	utilities := make([]float64, n)
	sustain := make([]float64, n)
	vols := make([]float64, n)
	shortfalls := make([]float64, n)
	for i, o := range outcomes {
		utilities[i] = o.Utility
		sustain[i] = o.Sustainability
		vols[i] = o.Volatility
		shortfalls[i] = float64(o.ShortfallYears)
	}

	medians := make(map[int]float64, len(referenceYears))
	for _, year := range referenceYears {
		if n == 0 || year < 0 || year >= len(outcomes[0].Path.MonthlyBenefit) {
			continue
		}
		column := make([]float64, n)
		for i, o := range outcomes {
			column[i] = o.Path.MonthlyBenefit[year]
		}
		medians[year] = formulas.Median(column)
	}

	return PolicySummary{
		Rule:               spec.Rule,
		Label:              spec.Rule.Label(),
		Rate:               spec.Rate,
		ExpectedUtility:    formulas.Mean(utilities),
		MedianMonthlyUBI:   medians,
		Sustainability:     formulas.Mean(sustain),
		UBIVolatility:      formulas.Mean(vols),
		MeanShortfallYears: formulas.Mean(shortfalls),
	}
}

// Compare evaluates every spec on the engine's shared paths
func (e *PolicyEngine) Compare(ctx context.Context, specs []PolicySpec, referenceYears []int) ([]PolicySummary, error) {
	if len(specs) == 0 {
		specs = DefaultPolicySpecs()
	}
	if len(referenceYears) == 0 {
		referenceYears = DefaultReferenceYears
	}

	summaries := make([]PolicySummary, 0, len(specs))
	for _, spec := range specs {
		outcomes, err := e.Evaluate(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", spec.Rule, err)
		}
		s := Summarize(spec, outcomes, referenceYears)
		summaries = append(summaries, s)

		e.log.Debug().
			Str("rule", spec.Rule.String()).
			Float64("rate", spec.Rate).
			Float64("utility", s.ExpectedUtility).
			Float64("sustainability", s.Sustainability).
			Msg("Policy evaluated")
	}
	return summaries, nil
}
