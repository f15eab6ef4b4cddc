// Package codec serialises wire envelopes.
//
// A Codec is identified by its content type so transports can negotiate one
// over HTTP headers or fix one per libp2p protocol. JSON is the relay default;
// CBOR (canonical encoding) frames libp2p streams.
package codec
