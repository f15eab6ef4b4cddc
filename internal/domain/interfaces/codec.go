package interfaces

import (
	"context"

	domaintypes "covertchan/internal/domain/types"
)

// Codec generates key material, seals and opens payloads, and names channels.
//
// Encrypt and Decrypt are deterministic given identical inputs.
type Codec interface {
	GenerateEncryption(ctx context.Context) (domaintypes.Material, error)
	Encrypt(ctx context.Context, data, key, iv []byte) ([]byte, error)
	Decrypt(ctx context.Context, data, key, iv []byte) ([]byte, error)
	GenerateName() domaintypes.ChannelName
}
