// Package store persists what a sender hands to its peer out of band.
//
// FileStore keeps three files in one directory:
//   - key.enc: the session key material, sealed under a passphrase. Its
//     header names the format version and the scrypt parameters and is
//     authenticated together with the ChaCha20-Poly1305 body (keyfile.go),
//   - transfer.json: plaintext transfer metadata (channel name, key
//     fingerprint, method), safe to share,
//   - identity.key: the marshalled libp2p private key, so the host keeps
//     one peer ID across runs.
//
// Writes replace a file atomically. All methods are concurrency-safe.
package store
