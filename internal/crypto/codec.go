package crypto

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"covertchan/internal/domain"
)

const (
	// KeyBytes is the symmetric key length.
	KeyBytes = chacha20poly1305.KeySize
	// IVBytes is the nonce length.
	IVBytes = chacha20poly1305.NonceSize
)

var (
	errKeySize = fmt.Errorf("key must be %d bytes", KeyBytes)
	errIVSize  = fmt.Errorf("iv must be %d bytes", IVBytes)
)

// Codec seals payloads with ChaCha20-Poly1305.
type Codec struct{}

// NewCodec returns the default payload codec.
func NewCodec() *Codec { return &Codec{} }

// GenerateEncryption returns a fresh key and iv. The exportable key is the
// raw key bytes, copied so wiping one does not wipe the other.
func (c *Codec) GenerateEncryption(ctx context.Context) (domain.Material, error) {
	if err := ctx.Err(); err != nil {
		return domain.Material{}, err
	}
	key := make([]byte, KeyBytes)
	if _, err := rand.Read(key); err != nil {
		return domain.Material{}, err
	}
	iv := make([]byte, IVBytes)
	if _, err := rand.Read(iv); err != nil {
		return domain.Material{}, err
	}
	return domain.Material{
		Key:           key,
		ExportableKey: append([]byte(nil), key...),
		IV:            iv,
	}, nil
}

// Encrypt seals data under key and iv.
func (c *Codec) Encrypt(ctx context.Context, data, key, iv []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	aead, err := newAEAD(key, iv)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv, data, nil), nil
}

// Decrypt opens data sealed by Encrypt with the same key and iv.
func (c *Codec) Decrypt(ctx context.Context, data, key, iv []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	aead, err := newAEAD(key, iv)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, iv, data, nil)
	if err != nil {
		return nil, errors.New("ciphertext rejected: wrong key or corrupted transfer")
	}
	return pt, nil
}

// GenerateName returns a fresh channel name.
func (c *Codec) GenerateName() domain.ChannelName { return GenerateName() }

func newAEAD(key, iv []byte) (cipher.AEAD, error) {
	if len(key) != KeyBytes {
		return nil, errKeySize
	}
	if len(iv) != IVBytes {
		return nil, errIVSize
	}
	return chacha20poly1305.New(key)
}

// Compile-time assertion that Codec implements domain.Codec.
var _ domain.Codec = (*Codec)(nil)
