package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"covertchan/internal/crypto"
	"covertchan/internal/domain"
	"covertchan/internal/services/session"
	"covertchan/internal/services/transfer"
	"covertchan/internal/store"
)

// Sender builds the sending side of a transfer from the configured channel
// settings, on channel when it is set and on a generated name otherwise.
//
// Encrypted transfers need a passphrase: the key has to reach the receiver
// through the sealed key file (or a token printed from it), so an unsealed
// key is refused up front. Key material sealed by keygen is used for exactly
// one transfer: once the recorded transfer info carries its fingerprint,
// fresh material is generated and sealed in its place. The codec never
// reuses a key/iv pair for a second payload. The transfer metadata is
// recorded either way.
func (w *Wire) Sender(ctx context.Context, channel domain.ChannelName, passphrase string) (*transfer.Orchestrator, error) {
	overrides := w.Config.Overrides()
	if *overrides.EncryptionEnabled {
		if passphrase == "" {
			return nil, &domain.ConfigurationError{
				Field:  "passphrase",
				Reason: "is required to seal the key of an encrypted transfer",
			}
		}
		m, err := w.unusedMaterial(passphrase)
		if err != nil {
			return nil, err
		}
		overrides.Key, overrides.IV = m.ExportableKey, m.IV
	}

	var (
		o   *transfer.Orchestrator
		err error
	)
	if channel != "" {
		o, err = transfer.NewOnChannel(w.Transport, channel, overrides, session.WithCodec(w.Codec))
	} else {
		o, err = transfer.New(w.Transport, overrides, session.WithCodec(w.Codec))
	}
	if err != nil {
		return nil, err
	}
	if err := o.InitializeEncryption(ctx); err != nil {
		return nil, err
	}

	cfg := o.Configuration()
	info := store.TransferInfo{Channel: o.ChannelName(), Method: cfg.Method, DataType: cfg.DataType}
	if o.EncryptionActive() {
		key, iv := o.Material()
		info.Fingerprint = crypto.Fingerprint(key, iv)
		if overrides.Key == nil {
			if err := w.Keys.SaveMaterial(passphrase, domain.Material{ExportableKey: cfg.Key, IV: cfg.IV}); err != nil {
				return nil, fmt.Errorf("save key material: %w", err)
			}
		}
	}
	if err := w.Keys.SaveTransfer(info); err != nil {
		zap.L().Warn("could not record transfer info", zap.Error(err))
	}
	return o, nil
}

// unusedMaterial returns sealed material no recorded transfer has used yet,
// or an empty Material.
func (w *Wire) unusedMaterial(passphrase string) (domain.Material, error) {
	m, err := w.Keys.LoadMaterial(passphrase)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Material{}, nil
	}
	if err != nil {
		return domain.Material{}, err
	}
	info, err := w.Keys.LoadTransfer()
	if err == nil && info.Fingerprint == crypto.Fingerprint(m.ExportableKey, m.IV) {
		zap.L().Debug("sealed key already used, generating fresh material")
		return domain.Material{}, nil
	}
	return m, nil
}

// Receiver builds the receiving side on channel. An empty channel falls back
// to the recorded transfer info, then to the debug channel name.
//
// With encryption enabled the key comes from token (see crypto.EncodeMaterial)
// when set, otherwise from the key store under passphrase.
func (w *Wire) Receiver(channel domain.ChannelName, token, passphrase string) (*transfer.Orchestrator, error) {
	overrides := w.Config.Overrides()
	if *overrides.EncryptionEnabled {
		var (
			m   domain.Material
			err error
		)
		if token != "" {
			m, err = crypto.DecodeMaterial(token)
		} else {
			m, err = w.Keys.LoadMaterial(passphrase)
		}
		if err != nil {
			return nil, fmt.Errorf("load key material: %w", err)
		}
		overrides.Key, overrides.IV = m.ExportableKey, m.IV
	}

	if channel == "" {
		if info, err := w.Keys.LoadTransfer(); err == nil {
			channel = info.Channel
		} else {
			channel = domain.DebugChannelName
		}
	}
	return transfer.NewOnChannel(w.Transport, channel, overrides, session.WithCodec(w.Codec))
}
