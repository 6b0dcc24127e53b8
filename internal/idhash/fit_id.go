package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeFitID computes a deterministic fit_id using SHA256.
// Formula: SHA256(symbol|model_key|data_digest)
// Returns hex-encoded hash (64 characters).
//
// The run id is deliberately excluded so refitting the same series under
// the same specification maps to the same record.
func ComputeFitID(symbol, modelKey, dataDigest string) string {
	data := fmt.Sprintf("%s|%s|%s", symbol, modelKey, dataDigest)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
