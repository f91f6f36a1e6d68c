package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveThresholdBands(t *testing.T) {
	cases := map[int]float64{
		0:  0.15,
		4:  0.15,
		5:  0.2,
		6:  0.2,
		7:  0.4,
		9:  0.4,
		10: 0.5,
		15: 0.5,
	}
	for length, want := range cases {
		assert.Equal(t, want, AdaptiveThreshold(length), "length %d", length)
	}
}

func TestAdaptiveThresholdMonotonic(t *testing.T) {
	prev := 0.0
	for length := 0; length <= 20; length++ {
		got := AdaptiveThreshold(length)
		assert.GreaterOrEqual(t, got, prev, "threshold dipped at length %d", length)
		prev = got
	}
}

func TestFixedThresholdIgnoresLength(t *testing.T) {
	f := FixedThreshold(0.2)
	assert.Equal(t, 0.2, f(0))
	assert.Equal(t, 0.2, f(100))
}
