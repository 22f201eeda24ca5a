// Package contenthash fingerprints serialized entity content for version
// identity and change detection. Digests are used for audit only.
package contenthash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Size is the length in characters of a digest returned by Sum.
const Size = sha256.Size * 2

// Sum returns the hex-encoded SHA-256 digest of content.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// SumString is Sum for string content.
func SumString(content string) string {
	return Sum([]byte(content))
}

// Verify reports whether digest is the digest of content.
func Verify(content []byte, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Sum(content)), []byte(digest)) == 1
}
