package returns

import (
	"errors"
	"fmt"
	"math"

	"crypto-volatility-lab/internal/domain"
)

// Transform errors
var (
	ErrInsufficientData = errors.New("price series needs at least 2 observations")
)

// ToLogReturns transforms an ordered price series into log returns:
// r_t = ln(p_t / p_{t-1}) for each consecutive pair. The output has
// len(prices)-1 points, each stamped with the later price's timestamp,
// in the same order as the input.
//
// The series is validated first: timestamps strictly increasing, all
// prices positive and finite.
func ToLogReturns(prices *domain.PriceSeries) (*domain.ReturnSeries, error) {
	if err := prices.Validate(); err != nil {
		return nil, fmt.Errorf("invalid price series %q: %w", prices.Symbol, err)
	}
	if len(prices.Points) < 2 {
		return nil, ErrInsufficientData
	}

	points := make([]domain.ReturnPoint, 0, len(prices.Points)-1)
	for i := 1; i < len(prices.Points); i++ {
		prev := prices.Points[i-1]
		cur := prices.Points[i]
		points = append(points, domain.ReturnPoint{
			Time:  cur.Time,
			Value: math.Log(cur.Price / prev.Price),
		})
	}

	return &domain.ReturnSeries{
		Symbol: prices.Symbol,
		Points: points,
	}, nil
}

// PercentLogReturns converts a price series to log returns in percent
// units (ToLogReturns scaled by 100), for callers whose downstream
// tooling expects percent returns. The fitting pipeline consumes raw
// log returns.
func PercentLogReturns(prices *domain.PriceSeries) (*domain.ReturnSeries, error) {
	rs, err := ToLogReturns(prices)
	if err != nil {
		return nil, err
	}
	for i := range rs.Points {
		rs.Points[i].Value *= 100
	}
	return rs, nil
}
