// Package crypto exposes the primitives a channel session needs.
//
// Contents
//
//   - ChaCha20-Poly1305 payload codec implementing domain.Codec (Codec,
//     GenerateEncryption, Encrypt, Decrypt)
//   - Channel name generation (GenerateName)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// A session encrypts exactly one payload with one key/iv pair, so the fixed
// IV is never reused under the same key. Callers should treat returned keys
// as sensitive and rely on Wipe when practical.
package crypto
