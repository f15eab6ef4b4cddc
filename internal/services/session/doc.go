// Package session owns one side of a channel transfer.
//
// A Session resolves its configuration, manages the key/iv lifecycle, buffers
// inbound fragments in arrival order and resolves a one-shot Completion when
// the terminal message arrives. It does not talk to a transport; the transfer
// package drives it.
package session
