package strategy_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covertchan/internal/domain"
	"covertchan/internal/strategy"
)

// recordingTransport captures sent envelopes.
type recordingTransport struct {
	mu   sync.Mutex
	sent []domain.Envelope
	at   []time.Time
}

func (r *recordingTransport) Local() domain.PeerID { return "me" }

func (r *recordingTransport) Send(_ context.Context, env domain.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, env)
	r.at = append(r.at, time.Now())
	return nil
}

func (r *recordingTransport) Subscribe(context.Context, domain.ChannelName, domain.PeerID) (<-chan domain.Envelope, error) {
	return nil, nil
}

// sliceSink records ingested messages.
type sliceSink struct {
	msgs  []domain.Message
	ended bool
}

func (s *sliceSink) Ingest(_ context.Context, msg domain.Message) error {
	if s.ended {
		return domain.ErrOrderingViolation
	}
	s.msgs = append(s.msgs, msg)
	if msg.IsEnd {
		s.ended = true
	}
	return nil
}

func (s *sliceSink) Ended() bool { return s.ended }

func config(method domain.Method, chunk int, interval time.Duration) domain.Configuration {
	return domain.Configuration{
		Method:       method,
		DataType:     domain.DataTypeText,
		ChunkSize:    chunk,
		PingInterval: interval,
	}
}

func TestFragments(t *testing.T) {
	got := strategy.Fragments([]byte("abcdefg"), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "abc", string(got[0]))
	assert.Equal(t, "def", string(got[1]))
	assert.Equal(t, "g", string(got[2]))

	assert.Empty(t, strategy.Fragments(nil, 3))
	assert.Len(t, strategy.Fragments([]byte("abc"), 3), 1)
	assert.Len(t, strategy.Fragments([]byte("abc"), 100), 1)
}

func TestNewSender_UnknownMethod(t *testing.T) {
	_, err := strategy.NewSender(strategy.SenderParams{Config: config("smoke", 1, time.Second)})
	require.ErrorIs(t, err, domain.ErrDispatch)
	_, err = strategy.NewReceiver(strategy.ReceiverParams{Config: config("smoke", 1, time.Second)})
	require.ErrorIs(t, err, domain.ErrDispatch)
}

func TestEndpointSender_NumbersFragments(t *testing.T) {
	tr := &recordingTransport{}
	seq := new(strategy.Sequence)
	s, err := strategy.NewSender(strategy.SenderParams{
		Transport: tr,
		Peer:      "peer",
		Config:    config(domain.MethodEndpoint, 2, time.Second),
		Channel:   "chan",
		Sequence:  seq,
		Payload:   []byte("abcde"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, tr.sent, 3)
	for i, env := range tr.sent {
		assert.Equal(t, uint64(i), env.Seq)
		assert.Equal(t, domain.EnvelopeKindReply, env.Kind)
		assert.Equal(t, domain.PeerID("me"), env.From)
		assert.Equal(t, domain.PeerID("peer"), env.To)
		assert.Equal(t, domain.ChannelName("chan"), env.Channel)
		assert.False(t, env.IsEnd)
	}
	assert.Equal(t, "e", string(tr.sent[2].Payload))
	assert.Equal(t, uint64(3), seq.Next())
}

func TestPacedSender_WaitsBetweenFragments(t *testing.T) {
	tr := &recordingTransport{}
	interval := 20 * time.Millisecond
	s, err := strategy.NewSender(strategy.SenderParams{
		Transport: tr,
		Peer:      "peer",
		Config:    config(domain.MethodPaced, 1, interval),
		Channel:   "chan",
		Payload:   []byte("abc"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, tr.sent, 3)
	assert.GreaterOrEqual(t, tr.at[2].Sub(tr.at[0]), 2*interval-5*time.Millisecond)
}

func TestPacedSender_StopsOnCancel(t *testing.T) {
	tr := &recordingTransport{}
	s, err := strategy.NewSender(strategy.SenderParams{
		Transport: tr,
		Peer:      "peer",
		Config:    config(domain.MethodPaced, 1, time.Hour),
		Channel:   "chan",
		Payload:   []byte("abc"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
	assert.Len(t, tr.sent, 1)
}

func envelope(seq uint64, payload string, end bool) domain.Envelope {
	return domain.Envelope{
		Kind:    domain.EnvelopeKindReply,
		From:    "peer",
		To:      "me",
		Channel: "chan",
		Seq:     seq,
		Payload: []byte(payload),
		IsEnd:   end,
	}
}

func runReceiver(t *testing.T, envs ...domain.Envelope) (*sliceSink, error) {
	t.Helper()
	inbox := make(chan domain.Envelope, len(envs))
	for _, env := range envs {
		inbox <- env
	}
	close(inbox)

	sink := &sliceSink{}
	r, err := strategy.NewReceiver(strategy.ReceiverParams{
		Inbox:   inbox,
		Peer:    "peer",
		Config:  config(domain.MethodEndpoint, 1, time.Second),
		Channel: "chan",
		Sink:    sink,
	})
	require.NoError(t, err)
	return sink, r.Run(context.Background())
}

func TestReceiver_InOrder(t *testing.T) {
	sink, err := runReceiver(t,
		envelope(0, "ab", false),
		envelope(1, "cd", false),
		envelope(2, "", true),
	)
	require.NoError(t, err)
	require.Len(t, sink.msgs, 3)
	assert.Equal(t, "ab", string(sink.msgs[0].Payload))
	assert.True(t, sink.msgs[2].IsEnd)
}

func TestReceiver_DiscardsDuplicatesAndStrangers(t *testing.T) {
	stranger := envelope(1, "zz", false)
	stranger.From = "mallory"
	otherChannel := envelope(1, "yy", false)
	otherChannel.Channel = "elsewhere"
	wrongKind := envelope(1, "xx", false)
	wrongKind.Kind = "chat"

	sink, err := runReceiver(t,
		envelope(0, "ab", false),
		envelope(0, "ab", false),
		stranger,
		otherChannel,
		wrongKind,
		envelope(1, "cd", false),
		envelope(2, "", true),
	)
	require.NoError(t, err)
	require.Len(t, sink.msgs, 3)
	assert.Equal(t, "cd", string(sink.msgs[1].Payload))
}

func TestReceiver_GapIsNotReassembled(t *testing.T) {
	sink, err := runReceiver(t,
		envelope(0, "ab", false),
		envelope(2, "ef", false),
		envelope(3, "", true),
	)
	require.ErrorIs(t, err, strategy.ErrInboxClosed)
	require.Len(t, sink.msgs, 1)
	assert.False(t, sink.ended)
}
