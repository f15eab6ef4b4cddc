package session

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"covertchan/internal/crypto"
	"covertchan/internal/domain"
)

// Session is one side of one channel transfer.
//
// It holds:
//   - the resolved configuration, into which key material is mirrored,
//   - the key/iv pair, set at most once,
//   - the ordered fragment buffer,
//   - the ended flag and the one-shot Completion.
//
// A Session serves exactly one transfer in one role. It is safe for
// concurrent use, but fragments are appended in the order Ingest is called,
// so callers must feed it from a single ordered source.
type Session struct {
	codec domain.Codec

	mu         sync.Mutex
	cfg        domain.Configuration
	key        []byte
	iv         []byte
	buffer     [][]byte
	ended      bool
	completion *Completion
}

// Option customises a Session.
type Option func(*Session)

// WithCodec replaces the default ChaCha20-Poly1305 codec.
func WithCodec(c domain.Codec) Option {
	return func(s *Session) { s.codec = c }
}

// New resolves the configuration from overrides and returns an empty session.
//
// When the overrides carry a key and iv (the receiving side, with material
// delivered out of band) the session adopts them as its own.
func New(overrides domain.Overrides, opts ...Option) (*Session, error) {
	cfg, err := ResolveConfiguration(overrides)
	if err != nil {
		return nil, err
	}
	s := &Session{
		codec:      crypto.NewCodec(),
		cfg:        cfg,
		completion: NewCompletion(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Key != nil {
		s.key = append([]byte(nil), cfg.Key...)
		s.iv = append([]byte(nil), cfg.IV...)
	}
	return s, nil
}

// Codec returns the codec the session encrypts with.
func (s *Session) Codec() domain.Codec { return s.codec }

// InitializeEncryption generates the session key material.
//
// It does nothing when encryption is disabled or key material is already
// set, so a transfer in flight never sees its key rotate.
func (s *Session) InitializeEncryption(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.EncryptionEnabled || (s.key != nil && s.iv != nil) {
		return nil
	}
	m, err := s.codec.GenerateEncryption(ctx)
	if err != nil {
		return fmt.Errorf("%w: generate key material: %w", domain.ErrEncryption, err)
	}
	s.key = m.Key
	s.iv = m.IV
	s.cfg.Key = append([]byte(nil), m.ExportableKey...)
	s.cfg.IV = append([]byte(nil), m.IV...)

	zap.L().Info("session key material generated",
		zap.String("fingerprint", crypto.Fingerprint(s.key, s.iv).String()))
	return nil
}

// EncryptionActive reports whether payloads are encrypted on this session.
func (s *Session) EncryptionActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encryptionActiveLocked()
}

func (s *Session) encryptionActiveLocked() bool {
	return s.cfg.EncryptionEnabled && s.key != nil && s.iv != nil
}

// Material returns copies of the key and iv, or nils before initialisation.
func (s *Session) Material() (key, iv []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil, nil
	}
	return append([]byte(nil), s.key...), append([]byte(nil), s.iv...)
}

// Configuration returns a copy of the resolved configuration.
func (s *Session) Configuration() domain.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// FullData concatenates the buffered fragments in arrival order.
// It is recomputed on every call.
func (s *Session) FullData() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullDataLocked()
}

func (s *Session) fullDataLocked() []byte {
	if len(s.buffer) == 0 {
		return []byte{}
	}
	return bytes.Join(s.buffer, nil)
}

// Buffered returns the number of fragments held.
func (s *Session) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// Ended reports whether the terminal message was processed or the
// communication was closed.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// MarkEnded closes the session to further input.
func (s *Session) MarkEnded() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

// Completion returns the session's one-shot completion handle.
func (s *Session) Completion() *Completion { return s.completion }

// Ingest consumes one inbound message.
//
// A non-terminal message appends its payload to the buffer. A terminal
// message snapshots the buffer, clears it, ends the session, decrypts the
// snapshot when encryption is active and resolves the completion. A failed
// decryption rejects the completion with domain.ErrEncryption.
//
// Messages arriving after the session ended are discarded with
// domain.ErrOrderingViolation.
func (s *Session) Ingest(ctx context.Context, msg domain.Message) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		zap.L().Warn("discarding message after end of transfer",
			zap.Bool("terminal", msg.IsEnd), zap.Int("bytes", len(msg.Payload)))
		return fmt.Errorf("%w: message after end of transfer", domain.ErrOrderingViolation)
	}
	if !msg.IsEnd {
		s.buffer = append(s.buffer, append([]byte(nil), msg.Payload...))
		s.mu.Unlock()
		return nil
	}

	snapshot := s.fullDataLocked()
	fragments := len(s.buffer)
	active := s.encryptionActiveLocked()
	key, iv := s.key, s.iv
	cfg := s.cfg.Clone()
	s.buffer = nil
	s.ended = true
	s.mu.Unlock()

	data := snapshot
	if active {
		plain, err := s.codec.Decrypt(ctx, snapshot, key, iv)
		if err != nil {
			err = fmt.Errorf("%w: decrypt transfer: %w", domain.ErrEncryption, err)
			s.completion.Reject(err)
			zap.L().Error("transfer decryption failed", zap.Int("fragments", fragments), zap.Error(err))
			return err
		}
		data = plain
	}

	s.completion.Resolve(domain.Result{ExtractedData: data, Config: cfg})
	zap.L().Info("transfer reassembled",
		zap.Int("fragments", fragments), zap.Int("bytes", len(data)), zap.Bool("encrypted", active))
	return nil
}
