package crypto

import "runtime"

// Wipe zeroes each buffer in place. Best-effort: the runtime may already
// have copied the bytes elsewhere.
//
//go:noinline
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
	runtime.KeepAlive(bufs)
}
