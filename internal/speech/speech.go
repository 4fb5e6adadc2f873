// Package speech speaks text: it synthesizes audio in the assistant's
// language, stores it in a temporary file, plays it and removes the file.
package speech

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strings"
	"time"
)

const (
	DefaultLanguage = "cs"
	DefaultTimeout  = 60 * time.Second
)

// ErrPlaybackTimeout is logged when playback exceeds the timeout. Speak does
// not return it.
var ErrPlaybackTimeout = errors.New("speech: playback timed out")

// Audio is synthesized speech in a container named by Ext (".mp3", ".wav").
type Audio struct {
	Data []byte
	Ext  string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (*Audio, error)
}

// Player plays an audio file and blocks until it ends or ctx is done.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Ducker lowers other applications while the assistant speaks.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Speaker struct {
	synth   Synthesizer
	player  Player
	ducker  Ducker
	lang    string
	timeout time.Duration
	dir     string
}

type Option func(*Speaker)

func WithLanguage(lang string) Option {
	return func(s *Speaker) {
		if lang != "" {
			s.lang = lang
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Speaker) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithDucker(d Ducker) Option {
	return func(s *Speaker) { s.ducker = d }
}

// WithTempDir sets where audio files are written ("" = os.TempDir).
func WithTempDir(dir string) Option {
	return func(s *Speaker) { s.dir = dir }
}

func NewSpeaker(synth Synthesizer, player Player, opts ...Option) *Speaker {
	s := &Speaker{
		synth:   synth,
		player:  player,
		lang:    DefaultLanguage,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Speak blocks until text has been played or the playback timeout elapsed.
// A timeout is logged, not returned. The temporary audio file never outlives
// the call.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	audio, err := s.synth.Synthesize(ctx, text, s.lang)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	f, err := os.CreateTemp(s.dir, "ninuska-tts-*"+audio.Ext)
	if err != nil {
		return fmt.Errorf("temp audio: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.Write(audio.Data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write audio: %w", err)
	}

	err = s.play(ctx, path)
	if errors.Is(err, ErrPlaybackTimeout) {
		log.Warn("Playback timed out", "timeout", s.timeout, "chars", len([]rune(text)))
		return nil
	}
	return err
}

func (s *Speaker) play(ctx context.Context, path string) error {
	if s.ducker != nil {
		if err := s.ducker.Duck(ctx); err != nil {
			log.Debug("Duck failed", "err", err)
		}
		defer func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.ducker.Restore(rctx); err != nil {
				log.Debug("Restore failed", "err", err)
			}
		}()
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.player.Play(pctx, path)
	if err != nil && ctx.Err() == nil && pctx.Err() == context.DeadlineExceeded {
		return ErrPlaybackTimeout
	}
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}
