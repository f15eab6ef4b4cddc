package crypto

import (
	"encoding/base64"
	"fmt"

	"covertchan/internal/domain"
)

// EncodeMaterial renders the exportable key and iv as one base64 token
// suitable for handing to the peer through another channel.
func EncodeMaterial(m domain.Material) string {
	raw := make([]byte, 0, len(m.ExportableKey)+len(m.IV))
	raw = append(raw, m.ExportableKey...)
	raw = append(raw, m.IV...)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeMaterial parses a token produced by EncodeMaterial.
func DecodeMaterial(token string) (domain.Material, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return domain.Material{}, fmt.Errorf("decode key token: %w", err)
	}
	if len(raw) != KeyBytes+IVBytes {
		return domain.Material{}, fmt.Errorf("key token: want %d bytes, got %d", KeyBytes+IVBytes, len(raw))
	}
	key := raw[:KeyBytes:KeyBytes]
	return domain.Material{
		Key:           key,
		ExportableKey: append([]byte(nil), key...),
		IV:            raw[KeyBytes:],
	}, nil
}
