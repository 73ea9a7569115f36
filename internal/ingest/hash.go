package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hasher computes the deduplication key for normalized content. The
// digest covers the normalized content string only; metadata is excluded, so
// identical text with different metadata is still the same content.
type SHA256Hasher struct{}

// ComputeHash returns the 64-character hex digest of the content.
func (SHA256Hasher) ComputeHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
