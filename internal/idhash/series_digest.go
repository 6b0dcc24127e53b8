package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"crypto-volatility-lab/internal/domain"
)

// ComputeSeriesDigest computes a deterministic digest of a return series.
// Each observation contributes its unix-ms timestamp and the exact bit
// pattern of its value, so any change to the data changes the digest.
// Returns hex-encoded hash (64 characters).
func ComputeSeriesDigest(rs *domain.ReturnSeries) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s\n", rs.Symbol)
	for _, p := range rs.Points {
		fmt.Fprintf(h, "%d|%016x\n", p.Time.UnixMilli(), math.Float64bits(p.Value))
	}

	return hex.EncodeToString(h.Sum(nil))
}
