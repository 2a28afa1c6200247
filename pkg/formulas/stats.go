package formulas

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divisor n)
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// Percentile returns the p-th percentile (0-100) of already sorted data.
// The result is always one of the samples, so percentiles of the same data
// are exactly ordered.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p/100, stat.Empirical, sorted, nil)
}

// Percentiles sorts a copy of data once and evaluates every requested
// percentile against it. The input slice is left untouched.
func Percentiles(data []float64, ps []float64) []float64 {
	out := make([]float64, len(ps))
	if len(data) == 0 {
		return out
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	for i, p := range ps {
		out[i] = Percentile(sorted, p)
	}
	return out
}

// Median returns the 50th percentile of data
func Median(data []float64) float64 {
	return Percentiles(data, []float64{50})[0]
}

// FractionBelow returns the share of values strictly below threshold
func FractionBelow(data []float64, threshold float64) float64 {
	if len(data) == 0 {
		return 0
	}
	n := floats.Count(func(v float64) bool { return v < threshold }, data)
	return float64(n) / float64(len(data))
}

// FractionAbove returns the share of values strictly above threshold
func FractionAbove(data []float64, threshold float64) float64 {
	if len(data) == 0 {
		return 0
	}
	n := floats.Count(func(v float64) bool { return v > threshold }, data)
	return float64(n) / float64(len(data))
}

// Diff returns the first differences data[i+1]-data[i]
func Diff(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}
	out := make([]float64, len(data)-1)
	for i := 1; i < len(data); i++ {
		out[i-1] = data[i] - data[i-1]
	}
	return out
}
