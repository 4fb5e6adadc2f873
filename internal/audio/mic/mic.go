// Package mic captures phrases from the default input device with portaudio.
package mic

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"ninuska/internal/audio"
)

// Microphone opens the input stream for each listen and closes it again, so
// the device is never held between turns.
type Microphone struct {
	gate *audio.Gate
}

func New(gate *audio.Gate) *Microphone {
	if gate == nil {
		gate = audio.DefaultGate()
	}
	return &Microphone{gate: gate}
}

func (m *Microphone) Init() error {
	return audio.Quiet(portaudio.Initialize)
}

func (m *Microphone) Close() {
	portaudio.Terminate()
}

// Calibrate listens to ambient noise for d and adjusts the energy threshold.
func (m *Microphone) Calibrate(ctx context.Context, d time.Duration) error {
	var frames [][]float32

	err := m.withStream(func(stream *audio.Stream) error {
		var err error
		frames, err = stream.Collect(ctx, int(d/audio.FrameDur))
		return err
	})
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}

	m.gate.Calibrate(frames)
	log.Debug("Calibrated microphone", "threshold", m.gate.Threshold, "frames", len(frames))
	return nil
}

// Listen blocks until one phrase has been captured. It returns no samples
// when the gate timed out before anyone spoke.
func (m *Microphone) Listen(ctx context.Context) ([]float32, error) {
	phrase := m.gate.NewPhrase()

	err := m.withStream(func(stream *audio.Stream) error {
		return stream.Phrase(ctx, phrase)
	})
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	pcm := phrase.Samples()
	log.Debug("Captured phrase", "samples", len(pcm), "threshold", m.gate.Threshold)
	return pcm, nil
}

func overflowed(err error) bool {
	return errors.Is(err, portaudio.InputOverflowed)
}

func (m *Microphone) withStream(fn func(*audio.Stream) error) error {
	buf := make([]float32, audio.FrameSize)

	var stream *portaudio.Stream
	err := audio.Quiet(func() error {
		var err error
		stream, err = portaudio.OpenDefaultStream(1, 0, audio.SampleRate, len(buf), buf)
		if err != nil {
			return err
		}
		if err := stream.Start(); err != nil {
			stream.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer stream.Close()
	defer stream.Stop()

	return fn(audio.NewStream(stream, buf, overflowed))
}
