// Package relay is the store-and-forward substrate for peers that cannot reach
// each other directly.
//
// Server keeps one FIFO queue per (recipient, channel) in memory. Client
// implements domain.Transport against it: Send posts an envelope, Subscribe
// polls the queue and acknowledges exactly the envelopes it consumed, so a
// queue is drained in order and each envelope is handed out once per
// successful acknowledgement.
//
// HTTP API
//
//	POST /msg/{to}/{channel}
//	    Enqueue one Envelope. The body is JSON or CBOR per Content-Type.
//
//	GET /msg/{to}/{channel}?limit=N
//	    Return up to N queued envelopes (all when N is absent or zero),
//	    encoded per Accept.
//
//	POST /msg/{to}/{channel}/ack {"count": N}
//	    Drop the first N queued envelopes.
//
// Non-2xx statuses are returned by the client as errors carrying the HTTP
// method, path and status text.
package relay
