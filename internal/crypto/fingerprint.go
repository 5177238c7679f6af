package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"chatcrypt/internal/domain"
)

// Fingerprint returns the SHA-256 hex digest of a public key. The digest is
// what identifies a device's key material in the registry.
func Fingerprint(pub []byte) domain.Fingerprint {
	sum := sha256.Sum256(pub)
	return domain.Fingerprint(hex.EncodeToString(sum[:]))
}
