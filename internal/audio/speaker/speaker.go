// Package speaker plays audio files and cue tones through the default output
// device with beep. The device is initialised for each playback and closed
// right after, so nothing holds it between turns.
package speaker

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"ninuska/internal/audio"
)

const toneRate = beep.SampleRate(44100)

// Player implements speech.Player.
type Player struct{}

func NewPlayer() *Player { return &Player{} }

// Play blocks until the file has been played or ctx is done.
func (p *Player) Play(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	streamer, format, err := decode(f, path)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	return play(ctx, format.SampleRate, streamer)
}

// Tone plays a short sine beep, used as the listening cue.
func Tone(ctx context.Context, freq float64, d time.Duration) error {
	return play(ctx, toneRate, beep.Take(toneRate.N(d), sine(freq, toneRate)))
}

func play(ctx context.Context, rate beep.SampleRate, s beep.Streamer) error {
	err := audio.Quiet(func() error {
		return speaker.Init(rate, rate.N(time.Second/10))
	})
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	defer speaker.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	default:
		return mp3.Decode(f)
	}
}

func sine(freq float64, rate beep.SampleRate) beep.Streamer {
	var pos int
	step := 2 * math.Pi * freq / float64(rate)
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := 0.3 * math.Sin(step*float64(pos))
			samples[i][0], samples[i][1] = v, v
			pos++
		}
		return len(samples), true
	})
}
