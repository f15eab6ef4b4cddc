// Package app wires application dependencies for the CLI.
//
// It builds the transport selected in the configuration, the key store and
// the codec, exposing them via the Wire struct, and creates transfer
// orchestrators bound to them.
package app
