package transfer

import (
	"context"
	"fmt"
	"sync/atomic"

	"covertchan/internal/domain"
	"covertchan/internal/services/session"
)

// EndFunc emits the end-of-transfer handshake to peer.
type EndFunc func(ctx context.Context, peer domain.PeerID) error

// Handshake sends the end-of-transfer message once an observed completion
// resolves. It serves a single transfer: it can be attached only once.
type Handshake struct {
	end      EndFunc
	attached atomic.Bool
}

// NewHandshake returns a handshake that calls end on completion.
func NewHandshake(end EndFunc) *Handshake {
	return &Handshake{end: end}
}

// Attach watches observed and, when it resolves successfully, sends the
// handshake to peer. The returned completion resolves with observed's result
// after the handshake went out, or rejects with whichever step failed.
//
// A second Attach returns domain.ErrTransferStarted.
func (h *Handshake) Attach(
	ctx context.Context,
	observed *session.Completion,
	peer domain.PeerID,
) (*session.Completion, error) {
	if !h.attached.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: handshake already attached", domain.ErrTransferStarted)
	}
	out := session.NewCompletion()
	go func() {
		res, err := observed.Wait(ctx)
		if err != nil {
			out.Reject(err)
			return
		}
		if err := h.end(ctx, peer); err != nil {
			out.Reject(fmt.Errorf("send end-of-transfer handshake: %w", err))
			return
		}
		out.Resolve(res)
	}()
	return out, nil
}
