//go:build !linux

package audio

// Quiet runs fn. Device diagnostics are only redirected on Linux.
func Quiet(fn func() error) error {
	return fn()
}
