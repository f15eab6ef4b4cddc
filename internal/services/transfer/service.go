package transfer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"covertchan/internal/domain"
	"covertchan/internal/services/session"
	"covertchan/internal/strategy"
)

// Orchestrator drives one transfer in one role over a transport.
//
// It embeds the Session it owns, so encryption lifecycle and buffer
// accessors are available directly.
//
// High-level flow:
//   - Send: encrypt the payload when encryption is active, run the Sender
//     for the configured method, then send the terminal handshake.
//   - Receive: subscribe to the channel, run the Receiver with the session
//     as its sink, resolve when the terminal message was reassembled.
type Orchestrator struct {
	*session.Session

	transport domain.Transport
	channel   domain.ChannelName
	seq       strategy.Sequence
	handshake *Handshake

	mu      sync.Mutex
	started bool
}

// New builds the session from overrides and fixes the channel name: the
// debug name in debug mode, a generated one otherwise.
func New(
	transport domain.Transport,
	overrides domain.Overrides,
	opts ...session.Option,
) (*Orchestrator, error) {
	s, err := session.New(overrides, opts...)
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{Session: s, transport: transport}
	if s.Configuration().Debug {
		o.channel = domain.DebugChannelName
	} else {
		o.channel = s.Codec().GenerateName()
	}
	o.handshake = NewHandshake(o.EndCommunication)
	return o, nil
}

// NewOnChannel is New with an explicit channel name, for the receiving side
// of a non-debug transfer whose name was shared out of band.
func NewOnChannel(
	transport domain.Transport,
	channel domain.ChannelName,
	overrides domain.Overrides,
	opts ...session.Option,
) (*Orchestrator, error) {
	if channel == "" {
		return nil, &domain.ConfigurationError{Field: "channel", Reason: "must not be empty"}
	}
	o, err := New(transport, overrides, opts...)
	if err != nil {
		return nil, err
	}
	o.channel = channel
	return o, nil
}

// ChannelName returns the channel this transfer runs on.
func (o *Orchestrator) ChannelName() domain.ChannelName { return o.channel }

// claim marks the orchestrator as serving a transfer.
func (o *Orchestrator) claim() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return domain.ErrTransferStarted
	}
	o.started = true
	return nil
}

// Send transmits payload to peer in the background.
//
// The returned completion resolves with the original payload once every
// fragment and the end-of-transfer handshake were handed to the transport.
// ctx bounds the whole transfer. A second Send or Receive on the same
// orchestrator returns domain.ErrTransferStarted.
func (o *Orchestrator) Send(
	ctx context.Context,
	payload []byte,
	peer domain.PeerID,
) (*session.Completion, error) {
	if err := o.claim(); err != nil {
		return nil, err
	}
	sent := session.NewCompletion()
	done, err := o.handshake.Attach(ctx, sent, peer)
	if err != nil {
		return nil, err
	}

	cfg := o.Configuration()
	zap.L().Info("transfer send started",
		zap.String("channel", o.channel.String()),
		zap.String("peer", peer.String()),
		zap.String("method", string(cfg.Method)),
		zap.Int("bytes", len(payload)))

	go func() {
		data := payload
		if o.EncryptionActive() {
			key, iv := o.Material()
			ct, err := o.Codec().Encrypt(ctx, payload, key, iv)
			if err != nil {
				sent.Reject(fmt.Errorf("%w: encrypt payload: %w", domain.ErrEncryption, err))
				return
			}
			data = ct
		}
		sender, err := strategy.NewSender(strategy.SenderParams{
			Transport: o.transport,
			Peer:      peer,
			Config:    cfg,
			Channel:   o.channel,
			Sequence:  &o.seq,
			Payload:   data,
		})
		if err != nil {
			sent.Reject(err)
			return
		}
		if err := sender.Run(ctx); err != nil {
			sent.Reject(err)
			return
		}
		sent.Resolve(domain.Result{ExtractedData: payload, Config: cfg})
	}()
	return done, nil
}

// Receive collects a transfer from peer in the background and returns the
// session's completion. ctx bounds the whole transfer.
func (o *Orchestrator) Receive(ctx context.Context, peer domain.PeerID) (*session.Completion, error) {
	if err := o.claim(); err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	inbox, err := o.transport.Subscribe(subCtx, o.channel, peer)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to channel %q: %w", o.channel, err)
	}
	receiver, err := strategy.NewReceiver(strategy.ReceiverParams{
		Inbox:   inbox,
		Peer:    peer,
		Config:  o.Configuration(),
		Channel: o.channel,
		Sink:    o.Session,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	zap.L().Info("transfer receive started",
		zap.String("channel", o.channel.String()), zap.String("peer", peer.String()))

	completion := o.Completion()
	go func() {
		defer cancel()
		if err := receiver.Run(subCtx); err != nil {
			completion.Reject(err)
		}
	}()
	return completion, nil
}

// EndCommunication sends the terminal handshake to peer and closes the
// session to further input.
func (o *Orchestrator) EndCommunication(ctx context.Context, peer domain.PeerID) error {
	defer o.MarkEnded()
	err := o.transport.Send(ctx, domain.Envelope{
		Kind:    domain.EnvelopeKindReply,
		From:    o.transport.Local(),
		To:      peer,
		Channel: o.channel,
		Seq:     o.seq.Next(),
		IsEnd:   true,
	})
	if err != nil {
		return err
	}
	zap.L().Info("end-of-transfer handshake sent",
		zap.String("channel", o.channel.String()), zap.String("peer", peer.String()))
	return nil
}
