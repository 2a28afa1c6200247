package withdrawal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	for _, r := range AllRules() {
		got, err := ParseRule(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	got, err := ParseRule("  Hybrid ")
	require.NoError(t, err)
	assert.Equal(t, Hybrid, got)

	_, err = ParseRule("four_percent")
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestRuleLabel(t *testing.T) {
	assert.Equal(t, "Hybrid (Yale)", Hybrid.Label())
	assert.Equal(t, "Liability-Driven", LiabilityDriven.Label())
	assert.Equal(t, "mystery", Rule("mystery").Label())
}

func TestAllRules_Unique(t *testing.T) {
	seen := map[Rule]bool{}
	for _, r := range AllRules() {
		assert.False(t, seen[r], "duplicate rule %s", r)
		assert.True(t, r.Valid())
		seen[r] = true
	}
	assert.Len(t, seen, 6)
}
