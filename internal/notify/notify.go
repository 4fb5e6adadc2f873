// Package notify announces that the assistant has started listening.
package notify

import (
	"context"
	"errors"
	"os/exec"
)

// Cue signals the user. It must return quickly.
type Cue func(ctx context.Context) error

// Sayer speaks a phrase.
type Sayer interface {
	Speak(ctx context.Context, text string) error
}

// Spoken says phrase through s.
func Spoken(s Sayer, phrase string) Cue {
	return func(ctx context.Context) error {
		return s.Speak(ctx, phrase)
	}
}

// Desktop shows a desktop notification with notify-send and does not wait
// for it.
func Desktop(summary string) Cue {
	return func(ctx context.Context) error {
		cmd := exec.Command("notify-send", "--app-name=ninuska", "--expire-time=2000", summary)
		if err := cmd.Start(); err != nil {
			return err
		}
		go cmd.Wait()
		return nil
	}
}

// All runs every cue and joins their errors.
func All(cues ...Cue) Cue {
	return func(ctx context.Context) error {
		var errs []error
		for _, c := range cues {
			if c == nil {
				continue
			}
			if err := c(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// None does nothing.
func None(context.Context) error { return nil }
