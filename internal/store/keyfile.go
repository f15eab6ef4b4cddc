package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"covertchan/internal/crypto"
)

const (
	keyFileMagic   = "covertchan-key"
	keyFileVersion = 2
	kdfScrypt      = "scrypt"
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// key file was modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")
	// ErrKeyFileFormat is returned for files that are not a key file this
	// build can read.
	ErrKeyFileFormat = errors.New("unsupported key file format")
)

// kdfParams records how the sealing key was derived from the passphrase.
type kdfParams struct {
	Name string `json:"name"`
	Salt []byte `json:"salt"`
	N    int    `json:"n"`
	R    int    `json:"r"`
	P    int    `json:"p"`
}

// keyFileHeader is authenticated as associated data: changing any of its
// fields makes the body fail to open.
type keyFileHeader struct {
	Magic   string    `json:"magic"`
	Version int       `json:"version"`
	KDF     kdfParams `json:"kdf"`
	Nonce   []byte    `json:"nonce"`
}

// keyFileDoc is the on-disk form of key.enc.
type keyFileDoc struct {
	Header keyFileHeader `json:"header"`
	Body   []byte        `json:"body"`
}

// sealedMaterial is the plaintext body of key.enc.
type sealedMaterial struct {
	Key []byte `json:"key"`
	IV  []byte `json:"iv"`
}

func defaultKDF() (kdfParams, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return kdfParams{}, err
	}
	return kdfParams{Name: kdfScrypt, Salt: salt, N: 1 << 15, R: 8, P: 1}, nil
}

func (k kdfParams) derive(passphrase string) ([]byte, error) {
	if k.Name != kdfScrypt {
		return nil, fmt.Errorf("%w: kdf %q", ErrKeyFileFormat, k.Name)
	}
	return scrypt.Key([]byte(passphrase), k.Salt, k.N, k.R, k.P, chacha20poly1305.KeySize)
}

// sealMaterial encodes sm as a key file protected by passphrase.
func sealMaterial(passphrase string, sm sealedMaterial) ([]byte, error) {
	kdf, err := defaultKDF()
	if err != nil {
		return nil, err
	}
	hdr := keyFileHeader{
		Magic:   keyFileMagic,
		Version: keyFileVersion,
		KDF:     kdf,
		Nonce:   make([]byte, chacha20poly1305.NonceSize),
	}
	if _, err := rand.Read(hdr.Nonce); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(sm)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(raw)

	body, err := hdr.seal(passphrase, raw)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(keyFileDoc{Header: hdr, Body: body}, "", "  ")
}

// openMaterial reverses sealMaterial.
func openMaterial(passphrase string, b []byte) (sealedMaterial, error) {
	var kf keyFileDoc
	if err := json.Unmarshal(b, &kf); err != nil {
		return sealedMaterial{}, fmt.Errorf("%w: %v", ErrKeyFileFormat, err)
	}
	if kf.Header.Magic != keyFileMagic {
		return sealedMaterial{}, fmt.Errorf("%w: not a key file", ErrKeyFileFormat)
	}
	if kf.Header.Version != keyFileVersion {
		return sealedMaterial{}, fmt.Errorf("%w: version %d", ErrKeyFileFormat, kf.Header.Version)
	}

	raw, err := kf.Header.open(passphrase, kf.Body)
	if err != nil {
		return sealedMaterial{}, err
	}
	defer crypto.Wipe(raw)

	var sm sealedMaterial
	if err := json.Unmarshal(raw, &sm); err != nil {
		return sealedMaterial{}, fmt.Errorf("decode key material: %w", err)
	}
	return sm, nil
}

func (h keyFileHeader) seal(passphrase string, raw []byte) ([]byte, error) {
	aead, ad, err := h.aead(passphrase)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, h.Nonce, raw, ad), nil
}

func (h keyFileHeader) open(passphrase string, body []byte) ([]byte, error) {
	if len(h.Nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: nonce length %d", ErrKeyFileFormat, len(h.Nonce))
	}
	aead, ad, err := h.aead(passphrase)
	if err != nil {
		return nil, err
	}
	raw, err := aead.Open(nil, h.Nonce, body, ad)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}

// aead derives the sealing key and returns the header bytes to authenticate.
func (h keyFileHeader) aead(passphrase string) (aead cipher.AEAD, ad []byte, err error) {
	key, err := h.KDF.derive(passphrase)
	if err != nil {
		return nil, nil, err
	}
	defer crypto.Wipe(key)
	if aead, err = chacha20poly1305.New(key); err != nil {
		return nil, nil, err
	}
	if ad, err = json.Marshal(h); err != nil {
		return nil, nil, err
	}
	return aead, ad, nil
}
