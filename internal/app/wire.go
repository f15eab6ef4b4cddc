package app

import (
	"fmt"
	"net/http"
	"strings"

	"covertchan/internal/config"
	"covertchan/internal/crypto"
	"covertchan/internal/domain"
	"covertchan/internal/protocol/codec"
	"covertchan/internal/relay"
	"covertchan/internal/store"
	"covertchan/internal/transport/p2p"
)

// Wire bundles the transport, stores and codec for the CLI.
type Wire struct {
	Config    *config.Config
	Transport domain.Transport
	Keys      *store.FileStore
	Codec     domain.Codec
	HTTP      *http.Client

	// P2P is set when the transport is libp2p.
	P2P *p2p.Transport
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	if cfg.Config == nil {
		cfg.Config = config.Default()
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	w := &Wire{
		Config: cfg.Config,
		Keys:   store.NewFileStore(cfg.Home),
		Codec:  crypto.NewCodec(),
		HTTP:   httpClient,
	}

	if cfg.Offline {
		return w, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case config.TransportRelay:
		if strings.TrimSpace(cfg.Me) == "" {
			return nil, &domain.ConfigurationError{Field: "me", Reason: "is required with the relay transport"}
		}
		wc, err := wireCodec(cfg.Relay.Codec)
		if err != nil {
			return nil, err
		}
		opts := []relay.Option{
			relay.WithHTTPClient(httpClient),
			relay.WithCodec(wc),
			relay.WithPollInterval(cfg.Channel.PingInterval),
		}
		if cfg.Relay.Batch > 0 {
			opts = append(opts, relay.WithBatch(cfg.Relay.Batch))
		}
		w.Transport = relay.New(strings.TrimRight(cfg.Relay.URL, "/"), domain.PeerID(cfg.Me), opts...)
	case config.TransportP2P:
		priv, err := w.Identity()
		if err != nil {
			return nil, err
		}
		t, err := p2p.New(p2p.Config{ListenAddrs: cfg.P2P.Listen, MaxFrame: cfg.P2P.MaxFrame, Identity: priv})
		if err != nil {
			return nil, err
		}
		w.Transport, w.P2P = t, t
	default:
		return nil, &domain.ConfigurationError{Field: "transport", Reason: fmt.Sprintf("unknown transport %q", cfg.Transport)}
	}
	return w, nil
}

// Close releases the transport.
func (w *Wire) Close() error {
	if w.P2P != nil {
		return w.P2P.Close()
	}
	return nil
}

// ResolvePeer turns a user-supplied peer address into the form envelopes
// carry. On p2p a full multiaddr is also recorded for dialling.
func (w *Wire) ResolvePeer(addr string) (domain.PeerID, error) {
	if strings.TrimSpace(addr) == "" {
		return "", &domain.ConfigurationError{Field: "peer", Reason: "must not be empty"}
	}
	if w.P2P != nil {
		return w.P2P.AddPeer(addr)
	}
	return domain.PeerID(addr), nil
}

func wireCodec(name string) (codec.Codec, error) {
	reg, err := codec.NewRegistry()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(name) {
	case "cbor":
		return reg.Get(codec.ContentTypeCBOR), nil
	default:
		return reg.Get(codec.ContentTypeJSON), nil
	}
}
