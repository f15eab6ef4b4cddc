package crypto_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covertchan/internal/crypto"
	"covertchan/internal/domain"
)

func TestCodec_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := crypto.NewCodec()

	m, err := c.GenerateEncryption(ctx)
	require.NoError(t, err)
	require.Len(t, m.Key, crypto.KeyBytes)
	require.Len(t, m.IV, crypto.IVBytes)
	require.Equal(t, m.Key, m.ExportableKey)

	for _, payload := range [][]byte{nil, []byte("x"), []byte("session cookie jar: a=1; b=2")} {
		ct, err := c.Encrypt(ctx, payload, m.Key, m.IV)
		require.NoError(t, err)
		pt, err := c.Decrypt(ctx, ct, m.Key, m.IV)
		require.NoError(t, err)
		assert.Equal(t, string(payload), string(pt))
	}
}

func TestCodec_Deterministic(t *testing.T) {
	ctx := context.Background()
	c := crypto.NewCodec()
	m, err := c.GenerateEncryption(ctx)
	require.NoError(t, err)

	a, err := c.Encrypt(ctx, []byte("same"), m.Key, m.IV)
	require.NoError(t, err)
	b, err := c.Encrypt(ctx, []byte("same"), m.Key, m.IV)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCodec_WrongKeyFails(t *testing.T) {
	ctx := context.Background()
	c := crypto.NewCodec()
	m1, err := c.GenerateEncryption(ctx)
	require.NoError(t, err)
	m2, err := c.GenerateEncryption(ctx)
	require.NoError(t, err)

	ct, err := c.Encrypt(ctx, []byte("secret"), m1.Key, m1.IV)
	require.NoError(t, err)
	_, err = c.Decrypt(ctx, ct, m2.Key, m1.IV)
	require.Error(t, err)
}

func TestCodec_BadSizes(t *testing.T) {
	ctx := context.Background()
	c := crypto.NewCodec()
	_, err := c.Encrypt(ctx, []byte("x"), []byte("short"), make([]byte, crypto.IVBytes))
	require.Error(t, err)
	_, err = c.Encrypt(ctx, []byte("x"), make([]byte, crypto.KeyBytes), []byte{1})
	require.Error(t, err)
}

func TestGenerateName_Distinct(t *testing.T) {
	a, b := crypto.GenerateName(), crypto.GenerateName()
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, domain.DebugChannelName, a)
	assert.Len(t, a.String(), 32)
}

func TestMaterialToken_RoundTrip(t *testing.T) {
	m, err := crypto.NewCodec().GenerateEncryption(context.Background())
	require.NoError(t, err)

	got, err := crypto.DecodeMaterial(crypto.EncodeMaterial(m))
	require.NoError(t, err)
	assert.Equal(t, m.Key, got.Key)
	assert.Equal(t, m.IV, got.IV)

	_, err = crypto.DecodeMaterial("AAAA")
	require.Error(t, err)
}

func TestWipe(t *testing.T) {
	a, b := []byte{1, 2, 3}, []byte{4}
	crypto.Wipe(a, b)
	assert.Equal(t, []byte{0, 0, 0}, a)
	assert.Equal(t, []byte{0}, b)
}

func TestFingerprint_Stable(t *testing.T) {
	k, iv := []byte("k"), []byte("iv")
	assert.Equal(t, crypto.Fingerprint(k, iv), crypto.Fingerprint(k, iv))
	assert.Len(t, crypto.Fingerprint(k, iv).String(), 20)
}
