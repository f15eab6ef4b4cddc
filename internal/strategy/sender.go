package strategy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"covertchan/internal/domain"
)

type endpointSender struct{ p SenderParams }

func (s *endpointSender) Run(ctx context.Context) error {
	frags := Fragments(s.p.Payload, s.p.Config.ChunkSize)
	for i, frag := range frags {
		if err := emit(ctx, s.p, frag); err != nil {
			return fmt.Errorf("send fragment %d/%d: %w", i+1, len(frags), err)
		}
	}
	zap.L().Debug("fragments sent",
		zap.String("channel", s.p.Channel.String()), zap.Int("fragments", len(frags)))
	return nil
}

type pacedSender struct{ p SenderParams }

func (s *pacedSender) Run(ctx context.Context) error {
	frags := Fragments(s.p.Payload, s.p.Config.ChunkSize)
	if len(frags) == 0 {
		return nil
	}
	ticker := time.NewTicker(s.p.Config.PingInterval)
	defer ticker.Stop()

	for i, frag := range frags {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if err := emit(ctx, s.p, frag); err != nil {
			return fmt.Errorf("send fragment %d/%d: %w", i+1, len(frags), err)
		}
	}
	zap.L().Debug("fragments sent",
		zap.String("channel", s.p.Channel.String()),
		zap.Int("fragments", len(frags)),
		zap.Duration("interval", s.p.Config.PingInterval))
	return nil
}

func emit(ctx context.Context, p SenderParams, frag []byte) error {
	return p.Transport.Send(ctx, domain.Envelope{
		Kind:    domain.EnvelopeKindReply,
		From:    p.Transport.Local(),
		To:      p.Peer,
		Channel: p.Channel,
		Seq:     p.Sequence.Next(),
		Payload: frag,
	})
}
