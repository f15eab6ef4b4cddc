package strategy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"covertchan/internal/domain"
)

// ErrInboxClosed is returned when the subscription ends before the terminal
// message arrived.
var ErrInboxClosed = errors.New("inbox closed before end of transfer")

type orderedReceiver struct {
	p        ReceiverParams
	expected uint64
}

func (r *orderedReceiver) Run(ctx context.Context) error {
	for {
		var env domain.Envelope
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok = <-r.p.Inbox:
		}
		if !ok {
			return ErrInboxClosed
		}

		if err := r.check(env); err != nil {
			zap.L().Warn("discarding envelope",
				zap.String("channel", env.Channel.String()),
				zap.String("from", env.From.String()),
				zap.Uint64("seq", env.Seq),
				zap.Error(err))
			continue
		}
		r.expected++

		err := r.p.Sink.Ingest(ctx, env.Message())
		switch {
		case errors.Is(err, domain.ErrOrderingViolation):
			if r.p.Sink.Ended() {
				return nil
			}
			continue
		case err != nil:
			return err
		}
		if env.IsEnd {
			return nil
		}
	}
}

func (r *orderedReceiver) check(env domain.Envelope) error {
	switch {
	case env.Kind != domain.EnvelopeKindReply:
		return fmt.Errorf("unexpected envelope kind %q", env.Kind)
	case env.Channel != r.p.Channel:
		return fmt.Errorf("envelope for channel %q", env.Channel)
	case env.From != r.p.Peer:
		return fmt.Errorf("envelope from unexpected peer %q", env.From)
	case env.Seq != r.expected:
		return fmt.Errorf("%w: seq %d, want %d", domain.ErrOrderingViolation, env.Seq, r.expected)
	}
	return nil
}
