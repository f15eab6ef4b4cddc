package app

import (
	"net/http"

	"covertchan/internal/config"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	*config.Config

	HTTP *http.Client // optional; defaults to http.DefaultClient

	// Offline skips the transport, for commands that only touch the key store.
	Offline bool
}
