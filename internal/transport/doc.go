// Package transport groups the substrates a channel transfer can run over.
//
// Each subpackage implements domain.Transport:
//
//   - mem: an in-process broker, used by tests and single-process demos.
//   - p2p: libp2p streams, one protocol per channel name.
//
// The HTTP relay client lives in internal/relay next to its server.
//
// Every implementation must preserve per-channel send order and deliver each
// envelope at most once; receivers treat anything else as an ordering
// violation.
package transport
