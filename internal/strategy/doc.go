// Package strategy implements the transport strategies that move a payload
// between two peers.
//
// Strategies are a closed set selected by domain.Method:
//
//   - endpoint: the sender emits every fragment back to back.
//   - paced: the sender emits one fragment per PingInterval tick.
//
// Both methods share one receiver, which enforces the sequence numbering
// carried on each envelope before handing messages to its Sink. Every
// strategy has a single entry point, Run.
package strategy
