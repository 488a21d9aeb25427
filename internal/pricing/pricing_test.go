package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, 5, 1, hour, 30, 0, 0, time.UTC)
	}
}

func TestTimeMultiplier(t *testing.T) {
	cases := []struct {
		hour int
		want float64
	}{
		{0, 0.8},
		{7, 0.8},
		{8, 1.5},
		{14, 1.5},
		{20, 1.5},
		{21, 1.2},
		{23, 1.2},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeMultiplier(at(tc.hour)()), "hour %d", tc.hour)
	}
}

func TestQuote(t *testing.T) {
	c := &Calculator{BaseRate: 20, Clock: at(10), Demand: func() float64 { return 1.25 }}

	q, err := c.Quote(2)
	require.NoError(t, err)

	assert.Equal(t, 2, q.Hours)
	assert.Equal(t, 1.5, q.TimeMultiplier)
	assert.Equal(t, 1.25, q.Demand)
	assert.Equal(t, 75.0, q.Price)
}

func TestQuoteRoundsToCents(t *testing.T) {
	c := &Calculator{BaseRate: 3.33, Clock: at(22), Demand: func() float64 { return 0.77 }}

	q, err := c.Quote(1)
	require.NoError(t, err)

	// 3.33 * 1.2 * 0.77 = 3.07692
	assert.Equal(t, 3.08, q.Price)
}

func TestQuoteRejectsNonPositiveHours(t *testing.T) {
	c := NewCalculator(0)

	_, err := c.Quote(0)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = c.Quote(-3)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestNewCalculatorDefaults(t *testing.T) {
	c := NewCalculator(-1)
	assert.Equal(t, DefaultBaseRate, c.BaseRate)
	assert.NotNil(t, c.Clock)
	assert.NotNil(t, c.Demand)
}

func TestRandomDemandRange(t *testing.T) {
	for range 1000 {
		d := RandomDemand()
		assert.GreaterOrEqual(t, d, 0.5)
		assert.LessOrEqual(t, d, 2.0)
	}
}
