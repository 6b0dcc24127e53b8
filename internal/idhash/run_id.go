package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(started_at_ms|symbol,symbol,...)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(startedAtMs int64, symbols []string) string {
	data := fmt.Sprintf("%d|%s", startedAtMs, strings.Join(symbols, ","))

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
