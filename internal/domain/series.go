package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Series validation errors
var (
	ErrEmptySeries         = errors.New("series has no points")
	ErrNonPositivePrice    = errors.New("price must be positive")
	ErrUnorderedTimestamps = errors.New("timestamps must be strictly increasing")
	ErrNonFiniteValue      = errors.New("value is NaN or infinite")
)

// PricePoint is a single daily closing-price observation.
type PricePoint struct {
	Time  time.Time // observation timestamp (daily close)
	Price float64   // closing price, must be > 0
}

// PriceSeries is an ordered daily price history for one symbol.
// Points are strictly increasing in time.
type PriceSeries struct {
	Symbol string // e.g. "BTC-USD"
	Points []PricePoint
}

// Len returns the number of price observations.
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// Validate checks ordering and price positivity.
func (s *PriceSeries) Validate() error {
	if len(s.Points) == 0 {
		return ErrEmptySeries
	}
	for i, p := range s.Points {
		if !isFinite(p.Price) {
			return fmt.Errorf("point %d (%s): %w", i, p.Time.Format(time.RFC3339), ErrNonFiniteValue)
		}
		if p.Price <= 0 {
			return fmt.Errorf("point %d (%s): %w", i, p.Time.Format(time.RFC3339), ErrNonPositivePrice)
		}
		if i > 0 && !s.Points[i-1].Time.Before(p.Time) {
			return fmt.Errorf("point %d (%s): %w", i, p.Time.Format(time.RFC3339), ErrUnorderedTimestamps)
		}
	}
	return nil
}

// Prices extracts the raw price values in series order.
func (s *PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// ReturnPoint is a single log-return observation. Time is the timestamp
// of the later price in the pair that produced it.
type ReturnPoint struct {
	Time  time.Time
	Value float64
}

// ReturnSeries is an ordered log-return history for one symbol.
// A series derived from n prices has n-1 points.
type ReturnSeries struct {
	Symbol string
	Points []ReturnPoint
}

// Len returns the number of return observations.
func (s *ReturnSeries) Len() int {
	return len(s.Points)
}

// VariancePoint is a single conditional-variance observation. Time matches
// the return observation the variance belongs to.
type VariancePoint struct {
	Time     time.Time
	Variance float64
}

// Values extracts the raw return values in series order.
func (s *ReturnSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Times extracts the observation timestamps in series order.
func (s *ReturnSeries) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
