// Package memzero provides best-effort zeroing of sensitive byte slices.
package memzero

import "runtime"

// Zero overwrites b with zeroes. Best-effort: it aims to reduce the chance
// of the compiler eliding the write, not to guarantee erasure.
//
//go:noinline
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
