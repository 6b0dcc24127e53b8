package lookup

import (
	"sort"
	"time"

	"crypto-volatility-lab/internal/domain"
)

// PriceWindow returns the subslice of points within [start, end]
// (inclusive). A zero bound leaves that side of the window open. Points
// must be ordered by time ASC; the result aliases the input.
func PriceWindow(points []domain.PricePoint, start, end time.Time) []domain.PricePoint {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(points), func(i int) bool {
			return !points[i].Time.Before(start)
		})
	}
	hi := len(points)
	if !end.IsZero() {
		hi = sort.Search(len(points), func(i int) bool {
			return points[i].Time.After(end)
		})
	}
	if lo >= hi {
		return nil
	}
	return points[lo:hi]
}
