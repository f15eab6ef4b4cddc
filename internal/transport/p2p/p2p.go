// Package p2p carries channel transfers over libp2p streams.
//
// Each channel maps to its own protocol ID under ProtocolPrefix. Every
// envelope travels on a fresh stream as one CBOR frame; the receiving host
// queues it and answers with a one-byte acknowledgement before the sender's
// Send returns, which keeps the envelopes of one sender in order.
//
// Peers are addressed by their bare libp2p peer ID. AddPeer teaches the host
// how to dial one from a full multiaddr. A peer ID is only useful to the
// other side if it is stable, so hosts normally start from an identity kept
// in the home directory.
package p2p

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"covertchan/internal/domain"
	"covertchan/internal/protocol/codec"
	"covertchan/internal/transport/mem"
)

// ProtocolPrefix is prepended to the channel name to form a protocol ID.
const ProtocolPrefix = "/covertchan/1.0.0/"

const (
	ackByte       = 0x06
	streamTimeout = 30 * time.Second
)

var (
	// ErrFrameTooLarge is returned for envelopes above Config.MaxFrame.
	ErrFrameTooLarge = errors.New("p2p: frame too large")
	// ErrNotAcknowledged is returned when the peer closed a stream without
	// acknowledging the envelope.
	ErrNotAcknowledged = errors.New("p2p: envelope not acknowledged")
)

// Config configures the libp2p host.
type Config struct {
	// ListenAddrs are multiaddrs to listen on.
	ListenAddrs []string
	// MaxFrame bounds one encoded envelope. Zero selects 1 MiB.
	MaxFrame int
	// Identity is the host's private key. Nil starts with a fresh peer ID;
	// the CLI loads one kept in the home directory so it survives restarts.
	Identity crypto.PrivKey
}

// DefaultConfig listens on an ephemeral loopback TCP port.
func DefaultConfig() Config {
	return Config{ListenAddrs: []string{"/ip4/127.0.0.1/tcp/0"}, MaxFrame: 1 << 20}
}

// Transport is a domain.Transport over a libp2p host.
type Transport struct {
	host     host.Host
	codec    codec.Codec
	maxFrame int
	inbox    *mem.Broker
}

// New starts a libp2p host with cfg.Identity, or a fresh identity when unset.
func New(cfg Config) (*Transport, error) {
	if cfg.MaxFrame <= 0 {
		cfg.MaxFrame = 1 << 20
	}
	cb, err := codec.CBOR()
	if err != nil {
		return nil, err
	}
	opts := []libp2p.Option{libp2p.ListenAddrStrings(cfg.ListenAddrs...)}
	if cfg.Identity != nil {
		opts = append(opts, libp2p.Identity(cfg.Identity))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("start libp2p host: %w", err)
	}
	t := &Transport{host: h, codec: cb, maxFrame: cfg.MaxFrame, inbox: mem.NewBroker()}
	h.SetStreamHandlerMatch(ProtocolPrefix, matchChannel, t.handleStream)

	zap.L().Info("p2p host started",
		zap.String("peer", h.ID().String()), zap.Strings("addrs", t.Addrs()))
	return t, nil
}

// Close stops the host and ends every subscription.
func (t *Transport) Close() error {
	_ = t.inbox.Close()
	return t.host.Close()
}

// Local returns our peer ID.
func (t *Transport) Local() domain.PeerID { return domain.PeerID(t.host.ID().String()) }

// Addrs returns our dialable multiaddrs, each ending in /p2p/<id>.
func (t *Transport) Addrs() []string {
	suffix, err := ma.NewMultiaddr("/p2p/" + t.host.ID().String())
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(t.host.Addrs()))
	for _, a := range t.host.Addrs() {
		out = append(out, a.Encapsulate(suffix).String())
	}
	return out
}

// AddPeer records the addresses in a /p2p/ multiaddr and returns the peer's
// ID as used in envelopes. A bare peer ID is accepted and returned as is.
func (t *Transport) AddPeer(addr string) (domain.PeerID, error) {
	if !strings.HasPrefix(addr, "/") {
		id, err := peer.Decode(addr)
		if err != nil {
			return "", fmt.Errorf("parse peer id %q: %w", addr, err)
		}
		return domain.PeerID(id.String()), nil
	}
	info, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return "", fmt.Errorf("parse peer address %q: %w", addr, err)
	}
	t.host.Peerstore().AddAddrs(info.ID, info.Addrs, peerstore.PermanentAddrTTL)
	return domain.PeerID(info.ID.String()), nil
}

// Send opens a stream to env.To on the channel's protocol and writes env.
// It returns once the peer acknowledged the frame.
func (t *Transport) Send(ctx context.Context, env domain.Envelope) error {
	to, err := peer.Decode(env.To.String())
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", env.To, err)
	}
	env.From = t.Local()
	frame, err := t.codec.Marshal(env)
	if err != nil {
		return err
	}
	if len(frame) > t.maxFrame {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}

	s, err := t.host.NewStream(ctx, to, ProtocolID(env.Channel))
	if err != nil {
		return fmt.Errorf("open stream to %s: %w", to.ShortString(), err)
	}
	defer s.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.SetDeadline(deadline)
	} else {
		_ = s.SetDeadline(time.Now().Add(streamTimeout))
	}

	if _, err := s.Write(frame); err != nil {
		_ = s.Reset()
		return fmt.Errorf("write envelope: %w", err)
	}
	if err := s.CloseWrite(); err != nil {
		_ = s.Reset()
		return fmt.Errorf("close write: %w", err)
	}
	ack := make([]byte, 1)
	if _, err := io.ReadFull(s, ack); err != nil || ack[0] != ackByte {
		return fmt.Errorf("%w by %s", ErrNotAcknowledged, to.ShortString())
	}
	return nil
}

// Subscribe streams the envelopes peer from sends us on channel.
func (t *Transport) Subscribe(
	ctx context.Context,
	channel domain.ChannelName,
	from domain.PeerID,
) (<-chan domain.Envelope, error) {
	return t.inbox.Endpoint(t.Local()).Subscribe(ctx, channel, from)
}

func (t *Transport) handleStream(s network.Stream) {
	defer s.Close()
	remote := s.Conn().RemotePeer()
	_ = s.SetDeadline(time.Now().Add(streamTimeout))

	frame, err := io.ReadAll(io.LimitReader(s, int64(t.maxFrame)+1))
	if err != nil {
		zap.L().Warn("p2p read failed", zap.String("peer", remote.ShortString()), zap.Error(err))
		_ = s.Reset()
		return
	}
	if len(frame) > t.maxFrame {
		zap.L().Warn("p2p frame too large", zap.String("peer", remote.ShortString()))
		_ = s.Reset()
		return
	}
	var env domain.Envelope
	if err := t.codec.Unmarshal(frame, &env); err != nil {
		zap.L().Warn("p2p frame rejected", zap.String("peer", remote.ShortString()), zap.Error(err))
		_ = s.Reset()
		return
	}

	channel := ChannelOf(s.Protocol())
	if env.Channel != channel || env.From != domain.PeerID(remote.String()) || env.To != t.Local() {
		zap.L().Warn("p2p envelope does not match its stream",
			zap.String("peer", remote.ShortString()), zap.String("channel", channel.String()))
		_ = s.Reset()
		return
	}
	if err := t.inbox.Endpoint(env.From).Send(context.Background(), env); err != nil {
		_ = s.Reset()
		return
	}
	_, _ = s.Write([]byte{ackByte})
}

// ProtocolID returns the protocol carrying channel.
func ProtocolID(channel domain.ChannelName) protocol.ID {
	return protocol.ID(ProtocolPrefix + channel.String())
}

// ChannelOf is the inverse of ProtocolID.
func ChannelOf(id protocol.ID) domain.ChannelName {
	return domain.ChannelName(strings.TrimPrefix(string(id), ProtocolPrefix))
}

func matchChannel(id protocol.ID) bool {
	s := string(id)
	return strings.HasPrefix(s, ProtocolPrefix) && len(s) > len(ProtocolPrefix)
}

var _ domain.Transport = (*Transport)(nil)
