package tiervalues

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Run tests on the score to tier mapping, including every boundary.
func TestCalculateTier(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		expected string
	}{
		{name: "zeroIsUnrank", score: 0, expected: Unrank},
		{name: "lowestBronze", score: 1, expected: Bronze},
		{name: "highestBronze", score: 999, expected: Bronze},
		{name: "lowestSilver", score: 1000, expected: Silver},
		{name: "highestSilver", score: 1999, expected: Silver},
		{name: "lowestGold", score: 2000, expected: Gold},
		{name: "highestGold", score: 2999, expected: Gold},
		{name: "lowestPlatinum", score: 3000, expected: Platinum},
		{name: "highestPlatinum", score: 3999, expected: Platinum},
		{name: "lowestDiamond", score: 4000, expected: Diamond},
		{name: "highestDiamond", score: 4999, expected: Diamond},
		{name: "lowestMaster", score: 5000, expected: Master},
		{name: "highestMaster", score: 5999, expected: Master},
		{name: "lowestGrandmaster", score: 6000, expected: Grandmaster},
		{name: "highestGrandmaster", score: 6999, expected: Grandmaster},
		{name: "lowestChallenger", score: 7000, expected: Challenger},
		{name: "veryHighChallenger", score: 123456, expected: Challenger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateTier(tt.score))
		})
	}
}

// The numeric values must follow the tier ordering strictly.
func TestNumericValueOrdering(t *testing.T) {
	previous := NumericValue(Unrank)
	for _, tier := range []string{Bronze, Silver, Gold, Platinum, Diamond, Master, Grandmaster, Challenger} {
		current := NumericValue(tier)
		assert.Greater(t, current, previous, "tier %s should rank above the previous one", tier)
		previous = current
	}

	assert.Equal(t, 0, NumericValue("NOT_A_TIER"))
}

// Every tier needs a display name and a color; unknown labels fall back.
func TestDisplayMappings(t *testing.T) {
	for _, tier := range tierNames {
		assert.NotEmpty(t, DisplayName(tier))
		assert.NotEmpty(t, ColorCode(tier))
	}

	assert.Equal(t, DisplayName(Unrank), DisplayName("NOT_A_TIER"))
	assert.Equal(t, ColorCode(Unrank), ColorCode("NOT_A_TIER"))
}
