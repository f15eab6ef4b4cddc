package mem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covertchan/internal/domain"
	"covertchan/internal/transport/mem"
)

func recv(t *testing.T, ch <-chan domain.Envelope) domain.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
	}
	return domain.Envelope{}
}

func TestBroker_QueuesUntilSubscribed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := mem.NewBroker()
	defer b.Close()
	alice, bob := b.Endpoint("alice"), b.Endpoint("bob")

	for i := uint64(0); i < 3; i++ {
		require.NoError(t, alice.Send(ctx, domain.Envelope{To: "bob", Channel: "c", Seq: i}))
	}

	in, err := bob.Subscribe(ctx, "c", "alice")
	require.NoError(t, err)
	for i := uint64(0); i < 3; i++ {
		env := recv(t, in)
		assert.Equal(t, i, env.Seq)
		assert.Equal(t, domain.PeerID("alice"), env.From)
	}
}

func TestBroker_ChannelsAreSeparate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := mem.NewBroker()
	defer b.Close()
	alice, bob := b.Endpoint("alice"), b.Endpoint("bob")

	require.NoError(t, alice.Send(ctx, domain.Envelope{To: "bob", Channel: "one", Payload: []byte("1")}))
	require.NoError(t, alice.Send(ctx, domain.Envelope{To: "bob", Channel: "two", Payload: []byte("2")}))

	two, err := bob.Subscribe(ctx, "two", "alice")
	require.NoError(t, err)
	assert.Equal(t, "2", string(recv(t, two).Payload))
}

func TestBroker_SecondSubscriberRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := mem.NewBroker()
	defer b.Close()
	bob := b.Endpoint("bob")

	_, err := bob.Subscribe(ctx, "c", "alice")
	require.NoError(t, err)
	_, err = bob.Subscribe(ctx, "c", "alice")
	require.ErrorIs(t, err, mem.ErrAlreadySubscribed)
}

func TestBroker_CloseEndsSubscriptions(t *testing.T) {
	b := mem.NewBroker()
	in, err := b.Endpoint("bob").Subscribe(context.Background(), "c", "alice")
	require.NoError(t, err)

	require.NoError(t, b.Close())
	select {
	case _, ok := <-in:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	err = b.Endpoint("alice").Send(context.Background(), domain.Envelope{To: "bob"})
	require.ErrorIs(t, err, mem.ErrClosed)
}

func TestBroker_CancelledSubscriberKeepsUndelivered(t *testing.T) {
	b := mem.NewBroker()
	defer b.Close()
	alice, bob := b.Endpoint("alice"), b.Endpoint("bob")

	for i := uint64(0); i < 3; i++ {
		require.NoError(t, alice.Send(context.Background(), domain.Envelope{To: "bob", Channel: "c", Seq: i}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	in, err := bob.Subscribe(ctx, "c", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), recv(t, in).Seq)
	cancel()

	// Once the first subscription has let go, a new one picks up the rest.
	var again <-chan domain.Envelope
	require.Eventually(t, func() bool {
		again, err = bob.Subscribe(context.Background(), "c", "alice")
		return err == nil
	}, time.Second, time.Millisecond)
	require.NoError(t, alice.Send(context.Background(), domain.Envelope{To: "bob", Channel: "c", Seq: 3}))
	for i := uint64(1); i < 4; i++ {
		assert.Equal(t, i, recv(t, again).Seq)
	}
}
