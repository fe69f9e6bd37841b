// Package signing computes document hashes and applies enveloped XML
// digital signatures using caller-supplied key material.
package signing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the SHA-256 digest of the rendered document as a
// lowercase hex string. It is a pure function of the exact bytes passed
// in; storing the result on the record is the caller's move.
func Hash(xml string) string {
	sum := sha256.Sum256([]byte(xml))
	return hex.EncodeToString(sum[:])
}
