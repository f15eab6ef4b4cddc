package p2p

import (
	"crypto/rand"
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"covertchan/internal/domain"
)

// GenerateIdentity returns a new Ed25519 host key and its marshalled form.
func GenerateIdentity() (crypto.PrivKey, []byte, error) {
	priv, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, -1, rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate p2p identity: %w", err)
	}
	raw, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("encode p2p identity: %w", err)
	}
	return priv, raw, nil
}

// ParseIdentity decodes a key produced by GenerateIdentity.
func ParseIdentity(raw []byte) (crypto.PrivKey, error) {
	priv, err := crypto.UnmarshalPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("decode p2p identity: %w", err)
	}
	return priv, nil
}

// PeerIDOf returns the peer ID a host started with priv announces.
func PeerIDOf(priv crypto.PrivKey) (domain.PeerID, error) {
	id, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		return "", err
	}
	return domain.PeerID(id.String()), nil
}
