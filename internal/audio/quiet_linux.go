//go:build linux

package audio

import (
	"os"

	"golang.org/x/sys/unix"
)

// Quiet runs fn with file descriptor 2 pointed at /dev/null, hiding the
// diagnostics ALSA and JACK print while devices are opened. stderr is
// restored before Quiet returns; fn's error is returned unchanged.
func Quiet(fn func() error) error {
	saved, err := unix.Dup(unix.Stderr)
	if err != nil {
		return fn()
	}
	defer unix.Close(saved)

	null, err := unix.Open(os.DevNull, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return fn()
	}
	defer unix.Close(null)

	if err := unix.Dup3(null, unix.Stderr, 0); err != nil {
		return fn()
	}
	defer unix.Dup3(saved, unix.Stderr, 0)

	return fn()
}
