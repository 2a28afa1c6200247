// Package withdrawal implements the fund's annual withdrawal rules.
package withdrawal

import (
	"errors"
	"fmt"
	"strings"
)

// Rule selects how the annual withdrawal is computed
type Rule string

const (
	// PercentOfFund withdraws a fixed share of the current fund value
	PercentOfFund Rule = "percent_of_fund"
	// ConstantReal pays a fixed base amount indexed to inflation
	ConstantReal Rule = "constant_real"
	// Hybrid blends last year's inflation-adjusted payout with a fresh target (Yale rule)
	Hybrid Rule = "hybrid"
	// Smoothed exponentially smooths the percent-of-fund target
	Smoothed Rule = "smoothed"
	// LiabilityDriven scales the rate with the funded ratio of the UBI obligation
	LiabilityDriven Rule = "liability_driven"
	// Ratcheted lets the payout rise by a capped step but never fall
	Ratcheted Rule = "ratcheted"
)

var (
	// ErrUnknownRule is returned for an unrecognised rule name
	ErrUnknownRule = errors.New("unknown withdrawal rule")
	// ErrInvalidParams is returned when withdrawal parameters fail validation
	ErrInvalidParams = errors.New("invalid withdrawal parameters")
)

var ruleLabels = map[Rule]string{
	PercentOfFund:   "Constant %",
	ConstantReal:    "Constant Real",
	Hybrid:          "Hybrid (Yale)",
	Smoothed:        "Smoothed %",
	LiabilityDriven: "Liability-Driven",
	Ratcheted:       "Ratcheted",
}

// AllRules returns every rule in report order
func AllRules() []Rule {
	return []Rule{PercentOfFund, ConstantReal, Hybrid, Smoothed, LiabilityDriven, Ratcheted}
}

// ParseRule converts a rule name (case-insensitive) into a Rule
func ParseRule(name string) (Rule, error) {
	r := Rule(strings.ToLower(strings.TrimSpace(name)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	return r, nil
}

// Valid reports whether r is a known rule
func (r Rule) Valid() bool {
	_, ok := ruleLabels[r]
	return ok
}

func (r Rule) String() string {
	return string(r)
}

// Label is the human-readable name used in comparison tables
func (r Rule) Label() string {
	if l, ok := ruleLabels[r]; ok {
		return l
	}
	return string(r)
}
