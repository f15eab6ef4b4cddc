package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"covertchan/internal/domain"
)

// Fingerprint returns a short hex fingerprint of key material.
//
// It hashes key and iv with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(key, iv []byte) domain.Fingerprint {
	h := sha256.New()
	h.Write(key)
	h.Write(iv)
	sum := h.Sum(nil)
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}
