// Package commands defines the covertchan CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - keygen       Generate session key material and seal it under a passphrase
//   - fingerprint  Print the fingerprint of the sealed key material
//   - send         Send a message or file to a peer over a channel
//   - recv         Receive one transfer from a peer and print or save it
//
// # Implementation
//
// The root command loads the configuration (file, environment, then flags),
// sets up logging and builds the dependency graph (transport, key store,
// codec) before any subcommand runs. The graph is torn down after the
// subcommand returns.
package commands
