package relay_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covertchan/internal/domain"
	"covertchan/internal/protocol/codec"
	"covertchan/internal/relay"
	"covertchan/internal/services/transfer"
)

func ptr[T any](v T) *T { return &v }

func newRelay(t *testing.T) (*relay.Server, *httptest.Server) {
	t.Helper()
	s, err := relay.NewServer()
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func env(from, to domain.PeerID, seq uint64, payload string) domain.Envelope {
	return domain.Envelope{
		Kind:    domain.EnvelopeKindReply,
		From:    from,
		To:      to,
		Channel: "chan",
		Seq:     seq,
		Payload: []byte(payload),
	}
}

func TestClient_SendFetchAck(t *testing.T) {
	srv, ts := newRelay(t)
	ctx := context.Background()
	alice := relay.New(ts.URL, "alice")
	bob := relay.New(ts.URL, "bob")

	require.NoError(t, alice.Send(ctx, env("alice", "bob", 0, "one")))
	require.NoError(t, alice.Send(ctx, env("alice", "bob", 1, "two")))
	assert.Equal(t, 2, srv.Pending("bob", "chan"))

	got, err := bob.Fetch(ctx, "chan", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", string(got[0].Payload))

	require.NoError(t, bob.Ack(ctx, "chan", 1))
	got, err = bob.Fetch(ctx, "chan", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Seq)

	require.NoError(t, bob.Ack(ctx, "chan", 10))
	assert.Zero(t, srv.Pending("bob", "chan"))
}

func TestClient_CBOR(t *testing.T) {
	_, ts := newRelay(t)
	ctx := context.Background()
	cb, err := codec.CBOR()
	require.NoError(t, err)

	alice := relay.New(ts.URL, "alice", relay.WithCodec(cb))
	bob := relay.New(ts.URL, "bob")
	require.NoError(t, alice.Send(ctx, env("alice", "bob", 0, "binary\x00data")))

	got, err := bob.Fetch(ctx, "chan", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "binary\x00data", string(got[0].Payload))
}

func TestClient_SubscribeDropsStrangers(t *testing.T) {
	srv, ts := newRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := relay.New(ts.URL, "alice")
	mallory := relay.New(ts.URL, "mallory")
	bob := relay.New(ts.URL, "bob", relay.WithPollInterval(5*time.Millisecond), relay.WithBatch(2))

	require.NoError(t, alice.Send(ctx, env("alice", "bob", 0, "a")))
	require.NoError(t, mallory.Send(ctx, env("mallory", "bob", 0, "m")))
	require.NoError(t, alice.Send(ctx, env("alice", "bob", 1, "b")))

	inbox, err := bob.Subscribe(ctx, "chan", "alice")
	require.NoError(t, err)

	first := <-inbox
	second := <-inbox
	assert.Equal(t, "a", string(first.Payload))
	assert.Equal(t, "b", string(second.Payload))

	require.Eventually(t, func() bool { return srv.Pending("bob", "chan") == 0 },
		time.Second, 5*time.Millisecond)
}

func TestServer_RejectsBadRequests(t *testing.T) {
	_, ts := newRelay(t)

	resp, err := http.Post(ts.URL+"/msg/bob/chan", "text/xml", bytes.NewReader([]byte("<x/>")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	b, err := codec.JSON().Marshal(env("alice", "carol", 0, "x"))
	require.NoError(t, err)
	resp, err = http.Post(ts.URL+"/msg/bob/chan", codec.ContentTypeJSON, bytes.NewReader(b))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/msg/bob/chan?limit=-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRelay_Transfer(t *testing.T) {
	_, ts := newRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	base := domain.Overrides{
		Method:       ptr(domain.MethodPaced),
		ChunkSize:    ptr(16),
		PingInterval: ptr(2 * time.Millisecond),
		Debug:        ptr(false),
	}
	sender, err := transfer.New(relay.New(ts.URL, "alice"), base)
	require.NoError(t, err)
	require.NoError(t, sender.InitializeEncryption(ctx))

	recv := base
	recv.Key, recv.IV = sender.Material()
	receiver, err := transfer.NewOnChannel(
		relay.New(ts.URL, "bob", relay.WithPollInterval(2*time.Millisecond)),
		sender.ChannelName(), recv)
	require.NoError(t, err)

	payload := []byte("a message long enough to need several fragments on the relay")
	got, err := receiver.Receive(ctx, "alice")
	require.NoError(t, err)
	sent, err := sender.Send(ctx, payload, "bob")
	require.NoError(t, err)

	_, err = sent.Wait(ctx)
	require.NoError(t, err)
	res, err := got.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, res.ExtractedData)
}
