package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ContentKey returns a stable hex digest for s, used as a cache key suffix.
func ContentKey(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
