package formulas

import "math"

// CRRAUtility scores a consumption stream with discounted constant relative
// risk aversion utility:
//
//	U = sum_t beta^t * u(max(c_t, 1))
//	u(c) = c^(1-gamma) / (1-gamma)   gamma != 1
//	u(c) = ln(c)                     gamma == 1
//
// Consumption is floored at one unit so empty years stay finite.
func CRRAUtility(consumption []float64, gamma, beta float64) float64 {
	total := 0.0
	discount := 1.0

	for _, c := range consumption {
		if c < 1 {
			c = 1
		}

		var u float64
		if gamma == 1 {
			u = math.Log(c)
		} else {
			u = math.Pow(c, 1-gamma) / (1 - gamma)
		}

		total += discount * u
		discount *= beta
	}

	return total
}

// AnnuityFactor is the present value of 1 paid at the end of each of n years
// discounted at rate: (1 - (1+rate)^-n) / rate. A zero rate returns n.
func AnnuityFactor(rate float64, years int) float64 {
	if years <= 0 {
		return 0
	}
	if rate == 0 {
		return float64(years)
	}
	return (1 - math.Pow(1+rate, -float64(years))) / rate
}
