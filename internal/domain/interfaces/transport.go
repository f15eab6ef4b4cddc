package interfaces

import (
	"context"

	domaintypes "covertchan/internal/domain/types"
)

// Transport is peer-addressed message delivery keyed by channel name.
//
// Implementations must deliver the envelopes of one (sender, receiver,
// channel) triple in the order they were sent and at most once. The protocol
// relies on this; receivers reject anything that breaks the sequence.
type Transport interface {
	// Local returns the address peers use to reach this side.
	Local() domaintypes.PeerID

	// Send hands env to the substrate for delivery to env.To.
	Send(ctx context.Context, env domaintypes.Envelope) error

	// Subscribe streams envelopes addressed to us on channel from peer.
	// The returned channel is closed when ctx is done or the transport closes.
	Subscribe(
		ctx context.Context,
		channel domaintypes.ChannelName,
		from domaintypes.PeerID,
	) (<-chan domaintypes.Envelope, error)
}
