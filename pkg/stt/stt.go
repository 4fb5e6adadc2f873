// Package stt turns one listening window of PCM audio into text.
package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch is returned when the audio held no intelligible speech.
var ErrNoMatch = errors.New("stt: speech not recognized")

// ServiceError reports a failure of the recognition engine or its transport.
type ServiceError struct {
	Engine string
	Err    error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("stt [%s]: %v", e.Engine, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Recognizer transcribes mono float32 PCM sampled at 16 kHz.
type Recognizer interface {
	// Recognize returns the transcript, ErrNoMatch, or a *ServiceError.
	Recognize(ctx context.Context, pcm16k []float32, lang string) (string, error)
	Close() error
}

// BaseLanguage reduces a locale tag such as "cs-CZ" to "cs".
func BaseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// CleanTranscript drops engine annotations like "[BLANK_AUDIO]" or "(music)".
func CleanTranscript(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '[', '(':
			depth++
			continue
		case ']', ')':
			if depth > 0 {
				depth--
				continue
			}
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
