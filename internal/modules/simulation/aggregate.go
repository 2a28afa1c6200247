package simulation

import (
	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/pkg/formulas"
)

// BandPercentiles are the percentiles reported for every series
var BandPercentiles = []float64{5, 10, 25, 50, 75, 90, 95}

// Bands holds per-year percentiles and the mean of one series across paths
type Bands struct {
	P5   []float64 `json:"p5" msgpack:"p5"`
	P10  []float64 `json:"p10" msgpack:"p10"`
	P25  []float64 `json:"p25" msgpack:"p25"`
	P50  []float64 `json:"p50" msgpack:"p50"`
	P75  []float64 `json:"p75" msgpack:"p75"`
	P90  []float64 `json:"p90" msgpack:"p90"`
	P95  []float64 `json:"p95" msgpack:"p95"`
	Mean []float64 `json:"mean" msgpack:"mean"`
}

// Percentile returns the band for p (5, 10, 25, 50, 75, 90 or 95)
func (b Bands) Percentile(p int) ([]float64, bool) {
	switch p {
	case 5:
		return b.P5, true
	case 10:
		return b.P10, true
	case 25:
		return b.P25, true
	case 50:
		return b.P50, true
	case 75:
		return b.P75, true
	case 90:
		return b.P90, true
	case 95:
		return b.P95, true
	}
	return nil, false
}

// Ordered returns the percentile bands from p5 to p95
func (b Bands) Ordered() [][]float64 {
	return [][]float64{b.P5, b.P10, b.P25, b.P50, b.P75, b.P90, b.P95}
}

// AggregateResult summarises a Monte Carlo run
type AggregateResult struct {
	Config              FundConfig                             `json:"config" msgpack:"config"`
	FundStats           Bands                                  `json:"fund_stats" msgpack:"fund_stats"`
	WithdrawalStats     Bands                                  `json:"withdrawal_stats" msgpack:"withdrawal_stats"`
	BenefitStats        Bands                                  `json:"benefit_stats" msgpack:"benefit_stats"`
	MonthlyBenefitStats Bands                                  `json:"monthly_benefit_stats" msgpack:"monthly_benefit_stats"`
	ProbRuin            float64                                `json:"prob_ruin" msgpack:"prob_ruin"`
	ProbSuccess         float64                                `json:"prob_success" msgpack:"prob_success"`
	MaxDrawdownMedian   float64                                `json:"max_drawdown_median" msgpack:"max_drawdown_median"`
	MaxDrawdownP95      float64                                `json:"max_drawdown_p95" msgpack:"max_drawdown_p95"`
	TerminalMedian      float64                                `json:"terminal_median" msgpack:"terminal_median"`
	TerminalMean        float64                                `json:"terminal_mean" msgpack:"terminal_mean"`
	RegimeShares        map[market_regime.RegimeName]float64 `json:"regime_shares,omitempty" msgpack:"regime_shares,omitempty"`
	Paths               []PathResult                           `json:"paths,omitempty" msgpack:"paths,omitempty"`
}

// Ruin and strong-growth thresholds, as multiples of initial capital
const (
	RuinThreshold    = 0.5
	SuccessThreshold = 5.0
)

// Aggregate reduces finished paths into an AggregateResult
func Aggregate(cfg FundConfig, paths []PathResult) *AggregateResult {
	res := &AggregateResult{
		Config:              cfg,
		FundStats:           bandsOf(paths, cfg.TotalYears+1, func(p PathResult) []float64 { return p.FundValues }),
		WithdrawalStats:     bandsOf(paths, cfg.TotalYears, func(p PathResult) []float64 { return p.Withdrawals }),
		BenefitStats:        bandsOf(paths, cfg.TotalYears, func(p PathResult) []float64 { return p.BenefitPerCapita }),
		MonthlyBenefitStats: bandsOf(paths, cfg.TotalYears, func(p PathResult) []float64 { return p.MonthlyBenefit }),
	}

	finals := make([]float64, len(paths))
	drawdowns := make([]float64, len(paths))
	for i, p := range paths {
		finals[i] = p.FinalValue()
		drawdowns[i] = p.MaxDrawdown()
	}

	res.ProbRuin = formulas.FractionBelow(finals, RuinThreshold*cfg.InitialCapital)
	res.ProbSuccess = formulas.FractionAbove(finals, SuccessThreshold*cfg.InitialCapital)

	dd := formulas.Percentiles(drawdowns, []float64{50, 95})
	res.MaxDrawdownMedian, res.MaxDrawdownP95 = dd[0], dd[1]

	res.TerminalMedian = formulas.Median(finals)
	res.TerminalMean = formulas.Mean(finals)

	if cfg.UseRegimeSwitching {
		res.RegimeShares = regimeShares(paths)
	}

	keep := cfg.RetainPaths
	if keep > len(paths) {
		keep = len(paths)
	}
	if keep > 0 {
		res.Paths = make([]PathResult, keep)
		copy(res.Paths, paths[:keep])
	}

	return res
}

func bandsOf(paths []PathResult, years int, series func(PathResult) []float64) Bands {
	b := Bands{
		P5:   make([]float64, years),
		P10:  make([]float64, years),
		P25:  make([]float64, years),
		P50:  make([]float64, years),
		P75:  make([]float64, years),
		P90:  make([]float64, years),
		P95:  make([]float64, years),
		Mean: make([]float64, years),
	}
	targets := b.Ordered()

	column := make([]float64, len(paths))
	for t := 0; t < years; t++ {
		for i, p := range paths {
			column[i] = series(p)[t]
		}
		for k, v := range formulas.Percentiles(column, BandPercentiles) {
			targets[k][t] = v
		}
		b.Mean[t] = formulas.Mean(column)
	}
	return b
}

func regimeShares(paths []PathResult) map[market_regime.RegimeName]float64 {
	counts := make(map[market_regime.RegimeName]int)
	total := 0
	for _, p := range paths {
		for _, r := range p.Regimes {
			counts[r]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	shares := make(map[market_regime.RegimeName]float64, len(counts))
	for r, c := range counts {
		shares[r] = float64(c) / float64(total)
	}
	return shares
}
