package optimization

import (
	"errors"
	"fmt"

	"github.com/j-alcock/ss-extension-act-sub000/pkg/formulas"
)

// ErrInvalidScorer is returned for nonsensical utility parameters
var ErrInvalidScorer = errors.New("invalid utility scorer")

// UtilityScorer ranks benefit streams with discounted CRRA utility
type UtilityScorer struct {
	Gamma float64 `json:"gamma" yaml:"gamma"` // relative risk aversion
	Beta  float64 `json:"beta" yaml:"beta"`   // annual discount factor
}

// DefaultUtilityScorer uses gamma 2 and beta 0.97
func DefaultUtilityScorer() UtilityScorer {
	return UtilityScorer{Gamma: 2.0, Beta: 0.97}
}

// Validate checks gamma >= 0 and 0 < beta <= 1
func (u UtilityScorer) Validate() error {
	if u.Gamma < 0 {
		return fmt.Errorf("%w: gamma %v is negative", ErrInvalidScorer, u.Gamma)
	}
	if u.Beta <= 0 || u.Beta > 1 {
		return fmt.Errorf("%w: beta %v outside (0,1]", ErrInvalidScorer, u.Beta)
	}
	return nil
}

// Score returns the utility of a consumption stream, one entry per year
func (u UtilityScorer) Score(consumption []float64) float64 {
	return formulas.CRRAUtility(consumption, u.Gamma, u.Beta)
}
