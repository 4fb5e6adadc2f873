// Package backend produces a spoken reply for one utterance.
package backend

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"ninuska/internal/vision"
)

// DiagLimit bounds every diagnostic carried by an Error.
const DiagLimit = 200

// Backend answers one utterance, optionally looking at a camera frame.
// Replies are trimmed plain text ready for speech synthesis.
type Backend interface {
	Respond(ctx context.Context, utterance string, frame *vision.Frame) (string, error)
}

// Error is returned by every Backend for any failed or timed out call.
type Error struct {
	Backend string
	Diag    string // at most DiagLimit characters
	Timeout bool
	Err     error
}

func newError(backend, diag string, err error) *Error {
	return &Error{
		Backend: backend,
		Diag:    Truncate(strings.TrimSpace(diag), DiagLimit),
		Err:     err,
	}
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("backend [%s]: timed out", e.Backend)
	}
	return fmt.Sprintf("backend [%s]: %s", e.Backend, e.Diag)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
