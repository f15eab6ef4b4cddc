package p2p_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covertchan/internal/domain"
	"covertchan/internal/services/transfer"
	"covertchan/internal/transport/p2p"
)

func ptr[T any](v T) *T { return &v }

func pair(t *testing.T) (a, b *p2p.Transport, bID domain.PeerID) {
	t.Helper()
	a, err := p2p.New(p2p.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	b, err = p2p.New(p2p.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NotEmpty(t, b.Addrs())
	bID, err = a.AddPeer(b.Addrs()[0])
	require.NoError(t, err)
	require.Equal(t, b.Local(), bID)
	return a, b, bID
}

func TestProtocolID(t *testing.T) {
	id := p2p.ProtocolID("extraction")
	assert.Equal(t, "/covertchan/1.0.0/extraction", string(id))
	assert.Equal(t, domain.ChannelName("extraction"), p2p.ChannelOf(id))
}

func TestAddPeer_BareID(t *testing.T) {
	a, err := p2p.New(p2p.DefaultConfig())
	require.NoError(t, err)
	defer a.Close()

	id, err := a.AddPeer(a.Local().String())
	require.NoError(t, err)
	assert.Equal(t, a.Local(), id)

	_, err = a.AddPeer("not-a-peer")
	require.Error(t, err)
}

func TestSend_InOrder(t *testing.T) {
	a, b, bID := pair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for seq := range uint64(5) {
		require.NoError(t, a.Send(ctx, domain.Envelope{
			Kind:    domain.EnvelopeKindReply,
			To:      bID,
			Channel: "chan",
			Seq:     seq,
			Payload: []byte{byte(seq)},
		}))
	}

	inbox, err := b.Subscribe(ctx, "chan", a.Local())
	require.NoError(t, err)
	for seq := range uint64(5) {
		env := <-inbox
		assert.Equal(t, seq, env.Seq)
		assert.Equal(t, a.Local(), env.From)
		assert.Equal(t, []byte{byte(seq)}, env.Payload)
	}
}

func TestTransfer_OverLibp2p(t *testing.T) {
	a, b, bID := pair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	base := domain.Overrides{ChunkSize: ptr(32), Debug: ptr(true)}
	sender, err := transfer.New(a, base)
	require.NoError(t, err)
	require.NoError(t, sender.InitializeEncryption(ctx))

	recv := base
	recv.Key, recv.IV = sender.Material()
	receiver, err := transfer.New(b, recv)
	require.NoError(t, err)

	payload := []byte("fragments ride one libp2p stream each and arrive in order")
	got, err := receiver.Receive(ctx, a.Local())
	require.NoError(t, err)
	sent, err := sender.Send(ctx, payload, bID)
	require.NoError(t, err)

	_, err = sent.Wait(ctx)
	require.NoError(t, err)
	res, err := got.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, res.ExtractedData)
}

func TestIdentity_StablePeerID(t *testing.T) {
	priv, raw, err := p2p.GenerateIdentity()
	require.NoError(t, err)
	want, err := p2p.PeerIDOf(priv)
	require.NoError(t, err)

	parsed, err := p2p.ParseIdentity(raw)
	require.NoError(t, err)
	assert.True(t, priv.Equals(parsed))

	// Two runs from the same stored key announce the same peer ID.
	for range 2 {
		cfg := p2p.DefaultConfig()
		cfg.Identity = parsed
		tr, err := p2p.New(cfg)
		require.NoError(t, err)
		assert.Equal(t, want, tr.Local())
		require.NoError(t, tr.Close())
	}
}

func TestIdentity_Parse(t *testing.T) {
	_, err := p2p.ParseIdentity([]byte("not a key"))
	require.Error(t, err)
}
