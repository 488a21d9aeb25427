// Package pricing quotes parking charges from a base rate, the hour of day
// and a demand factor.
package pricing

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

const DefaultBaseRate = 20.0

var ErrInvalidDuration = errors.New("duration must be at least one hour")

type Quote struct {
	Hours          int     `json:"hours"`
	BaseRate       float64 `json:"base_rate"`
	TimeMultiplier float64 `json:"time_multiplier"`
	Demand         float64 `json:"demand"`
	Price          float64 `json:"price"`
}

type Calculator struct {
	BaseRate float64
	Clock    func() time.Time
	Demand   func() float64
}

func NewCalculator(baseRate float64) *Calculator {
	if baseRate <= 0 {
		baseRate = DefaultBaseRate
	}
	return &Calculator{
		BaseRate: baseRate,
		Clock:    time.Now,
		Demand:   RandomDemand,
	}
}

func (c *Calculator) Quote(hours int) (Quote, error) {
	if hours < 1 {
		return Quote{}, ErrInvalidDuration
	}

	timeMult := TimeMultiplier(c.Clock())
	demand := c.Demand()

	return Quote{
		Hours:          hours,
		BaseRate:       c.BaseRate,
		TimeMultiplier: timeMult,
		Demand:         demand,
		Price:          round2(c.BaseRate * float64(hours) * timeMult * demand),
	}, nil
}

// TimeMultiplier is 1.5 during the day (08:00-20:59), 1.2 in the evening
// and 0.8 overnight.
func TimeMultiplier(t time.Time) float64 {
	switch h := t.Hour(); {
	case h >= 8 && h <= 20:
		return 1.5
	case h > 20:
		return 1.2
	default:
		return 0.8
	}
}

// RandomDemand stands in for a demand signal: uniform in [0.5, 2.0].
func RandomDemand() float64 {
	return round2(0.5 + rand.Float64()*1.5)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
