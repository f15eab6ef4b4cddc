// Package transfer orchestrates one channel transfer on top of a session.
//
// The Orchestrator picks the channel name, selects the transport strategy for
// the configured method, and runs either the sending or the receiving side.
// The Handshake component watches the sending side's completion and emits the
// terminal message that tells the peer to reassemble.
package transfer
