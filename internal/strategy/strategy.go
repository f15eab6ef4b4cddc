package strategy

import (
	"context"
	"fmt"
	"sync/atomic"

	"covertchan/internal/domain"
)

// Sender moves one payload to the peer. Run returns once every fragment has
// been handed to the transport.
type Sender interface {
	Run(ctx context.Context) error
}

// Receiver collects fragments from the peer into a Sink. Run returns once the
// terminal message has been ingested.
type Receiver interface {
	Run(ctx context.Context) error
}

// Sink consumes ordered messages; a session satisfies it.
type Sink interface {
	Ingest(ctx context.Context, msg domain.Message) error
	Ended() bool
}

// Sequence hands out the envelope sequence numbers of one transfer.
type Sequence struct{ n atomic.Uint64 }

// Next returns the next number, starting at zero.
func (s *Sequence) Next() uint64 { return s.n.Add(1) - 1 }

// SenderParams binds a sender to its transfer.
type SenderParams struct {
	Transport domain.Transport
	Peer      domain.PeerID
	Config    domain.Configuration
	Channel   domain.ChannelName
	Sequence  *Sequence
	Payload   []byte
}

// ReceiverParams binds a receiver to its transfer.
type ReceiverParams struct {
	Inbox   <-chan domain.Envelope
	Peer    domain.PeerID
	Config  domain.Configuration
	Channel domain.ChannelName
	Sink    Sink
}

// NewSender returns the sender for p.Config.Method.
func NewSender(p SenderParams) (Sender, error) {
	if p.Sequence == nil {
		p.Sequence = new(Sequence)
	}
	switch p.Config.Method {
	case domain.MethodEndpoint:
		return &endpointSender{p: p}, nil
	case domain.MethodPaced:
		return &pacedSender{p: p}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrDispatch, p.Config.Method)
}

// NewReceiver returns the receiver for p.Config.Method.
func NewReceiver(p ReceiverParams) (Receiver, error) {
	switch p.Config.Method {
	case domain.MethodEndpoint, domain.MethodPaced:
		return &orderedReceiver{p: p}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrDispatch, p.Config.Method)
}

// Fragments splits payload into pieces of at most size bytes. The pieces
// alias payload.
func Fragments(payload []byte, size int) [][]byte {
	if size <= 0 || len(payload) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(payload)+size-1)/size)
	for start := 0; start < len(payload); start += size {
		end := min(start+size, len(payload))
		out = append(out, payload[start:end:end])
	}
	return out
}
