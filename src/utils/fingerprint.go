package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ContentFingerprint is the hex BLAKE2b-256 digest of an upload. Identical
// uploads share a fingerprint, which keys the import cache.
func ContentFingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
