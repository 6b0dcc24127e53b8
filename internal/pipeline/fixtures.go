package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/storage"
)

// fixtureStart is the first observation date of every fixture series.
var fixtureStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// fixtureSpec describes one synthetic daily price history. Returns follow
// a GARCH(1,1) process with standard normal innovations; the seed makes
// the series reproducible across runs.
type fixtureSpec struct {
	symbol     string
	seed       int64
	days       int
	startPrice float64
	omega      float64
	alpha      float64
	beta       float64
}

var fixtureSeries = []fixtureSpec{
	{symbol: "BTC-USD", seed: 11, days: 730, startPrice: 40000, omega: 2e-5, alpha: 0.08, beta: 0.90},
	{symbol: "ETH-USD", seed: 23, days: 730, startPrice: 2500, omega: 4e-5, alpha: 0.11, beta: 0.86},
	{symbol: "SOL-USD", seed: 37, days: 730, startPrice: 100, omega: 9e-5, alpha: 0.15, beta: 0.80},
}

// FixtureSymbols lists the symbols LoadFixtures seeds, in seeding order.
func FixtureSymbols() []string {
	out := make([]string, len(fixtureSeries))
	for i, f := range fixtureSeries {
		out[i] = f.symbol
	}
	return out
}

// LoadFixtures populates the store with deterministic synthetic price
// histories for demonstration runs. The store is append-only, so calling
// this against a store that already holds the fixtures fails with
// ErrDuplicateKey.
func LoadFixtures(ctx context.Context, store storage.PriceSeriesStore) error {
	for _, f := range fixtureSeries {
		if err := store.InsertBulk(ctx, f.symbol, syntheticPrices(f)); err != nil {
			return fmt.Errorf("seed %s: %w", f.symbol, err)
		}
	}
	return nil
}

// syntheticPrices simulates f.days daily closes. The variance recursion
// burns in for 300 steps before the first recorded price so the recorded
// window starts near the stationary distribution.
func syntheticPrices(f fixtureSpec) []domain.PricePoint {
	rng := rand.New(rand.NewSource(f.seed))

	v := f.omega / (1 - f.alpha - f.beta)
	eps := 0.0
	price := f.startPrice

	const burnIn = 300
	points := make([]domain.PricePoint, 0, f.days)
	for t := 0; t < burnIn+f.days; t++ {
		v = f.omega + f.alpha*eps*eps + f.beta*v
		eps = math.Sqrt(v) * rng.NormFloat64()
		if t < burnIn {
			continue
		}
		price *= math.Exp(eps)
		points = append(points, domain.PricePoint{
			Time:  fixtureStart.AddDate(0, 0, t-burnIn),
			Price: price,
		})
	}
	return points
}
