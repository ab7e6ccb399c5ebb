package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DeriveKey hashes the trimmed, lowercased text into a stable cache key.
// Surrounding whitespace and letter case never change the key; internal
// whitespace does, so materially different documents never collide.
func DeriveKey(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
