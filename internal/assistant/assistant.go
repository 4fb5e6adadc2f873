// Package assistant runs the turn loop: listen, recognize, ask the backend
// (with a camera frame when asked to look), shorten the reply and speak it.
// Turns are strictly sequential and a failed turn never ends the loop.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/google/uuid"

	"ninuska/internal/backend"
	"ninuska/internal/notify"
	"ninuska/internal/vision"
	"ninuska/pkg/stt"
)

// Listener captures one phrase of 16 kHz mono audio.
type Listener interface {
	Listen(ctx context.Context) ([]float32, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Camera interface {
	Capture(ctx context.Context) (*vision.Frame, error)
}

// Request arrives from the control socket. An empty Say opens a listening
// window; otherwise Say is spoken.
type Request struct {
	Say string
}

type Config struct {
	Language   string   // recognizer locale, e.g. "cs-CZ"
	Triggers   []string // phrases that make the assistant look
	Length     LengthPolicy
	Greeting   []string
	Progress   bool // speak progress phrases during a turn
	PushToTalk bool // wait for a listen request before every turn
}

func DefaultConfig() Config {
	return Config{
		Language: "cs-CZ",
		Triggers: []string{"podívej", "koukni"},
		Length: LengthPolicy{
			Threshold: DefaultSummaryThreshold,
			Cap:       DefaultHardCap,
		},
		Greeting: []string{phraseGreeting, phraseVisionHint},
		Progress: true,
	}
}

type Assistant struct {
	cfg        Config
	listener   Listener
	recognizer stt.Recognizer
	backend    backend.Backend
	speaker    Speaker
	camera     Camera
	cue        notify.Cue
	requests   <-chan Request
}

func New(cfg Config, l Listener, r stt.Recognizer, b backend.Backend, s Speaker) *Assistant {
	return &Assistant{
		cfg:        cfg,
		listener:   l,
		recognizer: r,
		backend:    b,
		speaker:    s,
		cue:        notify.None,
	}
}

func (a *Assistant) WithCamera(c Camera) *Assistant {
	a.camera = c
	return a
}

func (a *Assistant) WithCue(c notify.Cue) *Assistant {
	if c != nil {
		a.cue = c
	}
	return a
}

func (a *Assistant) WithRequests(ch <-chan Request) *Assistant {
	a.requests = ch
	return a
}

// Run greets the user and takes turns until ctx is done.
func (a *Assistant) Run(ctx context.Context) error {
	for _, line := range a.cfg.Greeting {
		a.say(ctx, line)
	}

	for {
		if !a.await(ctx) {
			return ctx.Err()
		}
		a.Turn(ctx)
	}
}

// await handles pending requests and reports whether a turn should start.
func (a *Assistant) await(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	if !a.cfg.PushToTalk || a.requests == nil {
		for {
			select {
			case req := <-a.requests:
				if req.Say != "" {
					a.say(ctx, req.Say)
				}
			default:
				return true
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case req := <-a.requests:
			if req.Say == "" {
				return true
			}
			a.say(ctx, req.Say)
		}
	}
}

// Turn runs one listen-dispatch-speak cycle. A failure is spoken and logged
// and then returned for the caller's information.
func (a *Assistant) Turn(ctx context.Context) error {
	logger := log.With("turn", uuid.NewString())

	err := a.turn(ctx, logger)
	if err == nil || ctx.Err() != nil {
		return err
	}

	msg := Message(err)
	if errors.Is(err, stt.ErrNoMatch) {
		logger.Warn(msg)
	} else {
		logger.Error("Turn failed", "category", Category(err), "err", err)
	}
	a.say(ctx, msg)
	return err
}

func (a *Assistant) turn(ctx context.Context, logger *log.Logger) error {
	if err := a.cue(ctx); err != nil {
		logger.Debug("Cue failed", "err", err)
	}
	logger.Info("Listening")

	pcm, err := a.listener.Listen(ctx)
	if err != nil {
		return fmt.Errorf("microphone: %w", err)
	}
	if len(pcm) == 0 {
		return stt.ErrNoMatch
	}

	text, err := a.recognizer.Recognize(ctx, pcm, a.cfg.Language)
	if err != nil {
		return err
	}
	logger.Info("Recognized", "text", text)

	var frame *vision.Frame
	if IsVisionRequest(text, a.cfg.Triggers) {
		a.progress(ctx, phraseCapturing)
		frame, err = a.capture(ctx)
		if err != nil {
			return err
		}
		defer frame.Release()
		logger.Info("Captured frame", "device", frame.Device, "bytes", len(frame.JPEG))
		a.progress(ctx, phraseAnalyzing)
	} else {
		a.progress(ctx, phraseProcessing)
	}

	reply, err := a.backend.Respond(ctx, text, frame)
	if err != nil {
		return err
	}
	logger.Info("Reply", "chars", len([]rune(reply)), "text", reply)

	spoken, err := a.cfg.Length.Apply(ctx, a.backend, reply)
	if err != nil {
		return err
	}
	if spoken != reply {
		logger.Info("Shortened", "text", spoken)
	}

	if err := a.speaker.Speak(ctx, spoken); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

func (a *Assistant) capture(ctx context.Context) (*vision.Frame, error) {
	if a.camera == nil {
		return nil, fmt.Errorf("%w: no camera configured", vision.ErrCameraUnavailable)
	}
	return a.camera.Capture(ctx)
}

func (a *Assistant) progress(ctx context.Context, phrase string) {
	if a.cfg.Progress {
		a.say(ctx, phrase)
	}
}

// say speaks text; failures are only logged since there is no one left to tell.
func (a *Assistant) say(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if err := a.speaker.Speak(ctx, text); err != nil {
		log.Error("Failed to speak", "text", text, "err", err)
	}
}
