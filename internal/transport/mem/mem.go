// Package mem is an in-process transport. Envelopes are queued per
// (receiver, sender, channel) mailbox until someone subscribes, so a sender
// may start before its receiver.
package mem

import (
	"context"
	"errors"
	"sync"

	"covertchan/internal/domain"
)

var (
	// ErrClosed is returned after the broker shut down.
	ErrClosed = errors.New("mem: broker closed")
	// ErrAlreadySubscribed is returned for a second live subscription on one mailbox.
	ErrAlreadySubscribed = errors.New("mem: mailbox already has a subscriber")
	errNoRecipient       = errors.New("mem: envelope has no recipient")
)

type mailboxKey struct {
	to      domain.PeerID
	from    domain.PeerID
	channel domain.ChannelName
}

type mailbox struct {
	mu         sync.Mutex
	items      []domain.Envelope
	signal     chan struct{}
	subscribed bool
}

func (m *mailbox) push(env domain.Envelope) {
	m.mu.Lock()
	m.items = append(m.items, env)
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) drain() []domain.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}

// requeue puts envelopes a subscriber took but never delivered back in
// front of anything queued since.
func (m *mailbox) requeue(rest []domain.Envelope) {
	if len(rest) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(append([]domain.Envelope(nil), rest...), m.items...)
}

// Broker routes envelopes between the transports it hands out.
type Broker struct {
	mu        sync.Mutex
	boxes     map[mailboxKey]*mailbox
	done      chan struct{}
	closeOnce sync.Once
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		boxes: make(map[mailboxKey]*mailbox),
		done:  make(chan struct{}),
	}
}

// Endpoint returns a transport bound to the local address id.
func (b *Broker) Endpoint(id domain.PeerID) *Transport {
	return &Transport{broker: b, local: id}
}

// Close stops every subscription.
func (b *Broker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}

func (b *Broker) box(k mailboxKey) *mailbox {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.boxes[k]
	if !ok {
		m = &mailbox{signal: make(chan struct{}, 1)}
		b.boxes[k] = m
	}
	return m
}

func (b *Broker) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Transport is one peer's view of a Broker.
type Transport struct {
	broker *Broker
	local  domain.PeerID
}

// Local returns the address this transport receives on.
func (t *Transport) Local() domain.PeerID { return t.local }

// Send queues env in the recipient's mailbox.
func (t *Transport) Send(ctx context.Context, env domain.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.broker.closed() {
		return ErrClosed
	}
	if env.To == "" {
		return errNoRecipient
	}
	if env.From == "" {
		env.From = t.local
	}
	t.broker.box(mailboxKey{to: env.To, from: env.From, channel: env.Channel}).push(env)
	return nil
}

// Subscribe streams the mailbox for (us, from, channel) in arrival order.
func (t *Transport) Subscribe(
	ctx context.Context,
	channel domain.ChannelName,
	from domain.PeerID,
) (<-chan domain.Envelope, error) {
	if t.broker.closed() {
		return nil, ErrClosed
	}
	m := t.broker.box(mailboxKey{to: t.local, from: from, channel: channel})
	m.mu.Lock()
	if m.subscribed {
		m.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	m.subscribed = true
	m.mu.Unlock()

	out := make(chan domain.Envelope)
	go func() {
		defer close(out)
		defer func() {
			m.mu.Lock()
			m.subscribed = false
			m.mu.Unlock()
		}()
		for {
			batch := m.drain()
			for i, env := range batch {
				select {
				case out <- env:
				case <-ctx.Done():
					m.requeue(batch[i:])
					return
				case <-t.broker.done:
					m.requeue(batch[i:])
					return
				}
			}
			select {
			case <-m.signal:
			case <-ctx.Done():
				return
			case <-t.broker.done:
				return
			}
		}
	}()
	return out, nil
}

// Compile-time assertion that Transport implements domain.Transport.
var _ domain.Transport = (*Transport)(nil)
