package app

import (
	"errors"

	p2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"go.uber.org/zap"

	"covertchan/internal/domain"
	"covertchan/internal/store"
	"covertchan/internal/transport/p2p"
)

// Identity returns the p2p host key kept in the home directory, generating
// and saving one on first use. Both sides of a p2p transfer need each
// other's peer ID before either starts, so it has to outlive a run.
func (w *Wire) Identity() (p2pcrypto.PrivKey, error) {
	raw, err := w.Keys.LoadIdentity()
	if err == nil {
		return p2p.ParseIdentity(raw)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	priv, raw, err := p2p.GenerateIdentity()
	if err != nil {
		return nil, err
	}
	if err := w.Keys.SaveIdentity(raw); err != nil {
		return nil, err
	}
	zap.L().Info("created p2p identity", zap.String("dir", w.Keys.Dir()))
	return priv, nil
}

// PeerID is the ID our p2p host announces; peers pass it as --peer.
func (w *Wire) PeerID() (domain.PeerID, error) {
	priv, err := w.Identity()
	if err != nil {
		return "", err
	}
	return p2p.PeerIDOf(priv)
}
