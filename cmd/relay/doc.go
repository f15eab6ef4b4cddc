// Package main runs the in-memory HTTP relay covertchan peers use when they
// cannot reach each other directly. It queues envelopes per (recipient,
// channel) until the recipient fetches and acknowledges them.
//
// HTTP API
//
//	POST /msg/{to}/{channel}
//	    Enqueue an Envelope destined to {to} on {channel}. JSON or CBOR,
//	    per Content-Type.
//
//	GET /msg/{to}/{channel}?limit=N
//	    Return up to N queued envelopes. If limit is absent or greater than
//	    the queue length, all queued envelopes are returned.
//
//	POST /msg/{to}/{channel}/ack { "count": N }
//	    Drop the first N queued envelopes. If N exceeds the queue length,
//	    the queue is cleared.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Every request is access-logged at debug level.
//   - The default listen address is :8080.
//
// The relay only ever sees envelopes. With encryption enabled their payloads
// are ciphertext; the key material never passes through it.
package main
