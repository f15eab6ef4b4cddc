package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"covertchan/internal/domain"
)

const (
	keyFile      = "key.enc"
	transferFile = "transfer.json"
	identityFile = "identity.key"
)

// ErrNotFound is returned when the requested file does not exist.
var ErrNotFound = errors.New("not found")

// TransferInfo is the shareable description of a prepared transfer.
type TransferInfo struct {
	Channel     domain.ChannelName `json:"channel"`
	Fingerprint domain.Fingerprint `json:"fingerprint,omitempty"`
	Method      domain.Method      `json:"method"`
	DataType    domain.DataType    `json:"data_type"`
	CreatedAt   int64              `json:"created_at"`
}

// FileStore stores key material, transfer metadata and the p2p host
// identity in one directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// SaveMaterial seals the exportable key and iv under passphrase.
func (s *FileStore) SaveMaterial(passphrase string, m domain.Material) error {
	if passphrase == "" {
		return &domain.ConfigurationError{Field: "passphrase", Reason: "must not be empty"}
	}
	key := m.ExportableKey
	if key == nil {
		key = m.Key
	}
	b, err := sealMaterial(passphrase, sealedMaterial{Key: key, IV: m.IV})
	if err != nil {
		return fmt.Errorf("seal key material: %w", err)
	}
	return s.write(keyFile, b, 0o600)
}

// LoadMaterial opens the sealed key file with passphrase.
func (s *FileStore) LoadMaterial(passphrase string) (domain.Material, error) {
	b, err := s.read(keyFile)
	if err != nil {
		return domain.Material{}, err
	}
	sm, err := openMaterial(passphrase, b)
	if err != nil {
		return domain.Material{}, err
	}
	return domain.Material{
		Key:           sm.Key,
		ExportableKey: append([]byte(nil), sm.Key...),
		IV:            sm.IV,
	}, nil
}

// SaveTransfer records info, stamping CreatedAt when unset.
func (s *FileStore) SaveTransfer(info TransferInfo) error {
	if info.CreatedAt == 0 {
		info.CreatedAt = time.Now().Unix()
	}
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return s.write(transferFile, b, 0o644)
}

// LoadTransfer returns the recorded transfer metadata.
func (s *FileStore) LoadTransfer() (TransferInfo, error) {
	b, err := s.read(transferFile)
	if err != nil {
		return TransferInfo{}, err
	}
	var info TransferInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return TransferInfo{}, fmt.Errorf("decode transfer info: %w", err)
	}
	return info, nil
}

// SaveIdentity stores the marshalled private key of the p2p host.
func (s *FileStore) SaveIdentity(raw []byte) error {
	if len(raw) == 0 {
		return &domain.ConfigurationError{Field: "identity", Reason: "must not be empty"}
	}
	return s.write(identityFile, raw, 0o600)
}

// LoadIdentity returns the bytes stored by SaveIdentity.
func (s *FileStore) LoadIdentity() ([]byte, error) {
	return s.read(identityFile)
}

func (s *FileStore) read(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok, err := readIfExists(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", name, s.dir, ErrNotFound)
	}
	return b, nil
}

func (s *FileStore) write(name string, b []byte, mode os.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return replaceFile(filepath.Join(s.dir, name), b, mode)
}

var _ domain.KeyStore = (*FileStore)(nil)
