package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"monotonic rise", []float64{100, 110, 120, 130}, 0},
		{"single dip", []float64{100, 120, 90, 130}, 0.25},
		{"deepest of two dips", []float64{100, 80, 100, 50, 60}, 0.5},
		{"full depletion", []float64{100, 50, 0, 0}, 1},
		{"peak floored at one", []float64{0.5, 0.25, 0}, 0.5},
		{"all zero", []float64{0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MaxDrawdown(tt.values), 1e-12)
		})
	}
}
