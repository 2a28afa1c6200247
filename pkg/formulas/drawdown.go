package formulas

// MaxDrawdown returns the largest peak-to-trough decline of a value series
// as a positive fraction (0.25 = 25% below the running peak).
//
// Drawdown Formula:
//
//	Drawdown[t] = (Peak[t] - Value[t]) / max(Peak[t], 1)
//
// The peak is floored at one unit so a fund that starts empty (or is
// depleted before ever growing) reports a finite drawdown instead of NaN.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}

		denom := peak
		if denom < 1 {
			denom = 1
		}

		if dd := (peak - v) / denom; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	return maxDrawdown
}
