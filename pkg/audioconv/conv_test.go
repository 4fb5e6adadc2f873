package audioconv

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownmix(t *testing.T) {
	out := Downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	assert.Equal(t, []float32{0.5, 0.5, 0}, out)

	mono := []float32{0.1, 0.2}
	assert.Equal(t, mono, Downmix(mono, 1))
}

func TestResample(t *testing.T) {
	in := make([]float32, 48000)
	for i := range in {
		in[i] = 0.25
	}

	out := Resample(in, 48000, 16000)
	assert.Len(t, out, 16000)
	for _, x := range out[:100] {
		assert.InDelta(t, 0.25, x, 1e-6)
	}

	assert.Equal(t, in, Resample(in, 16000, 16000))
	assert.Empty(t, Resample(nil, 8000, 16000))
}

func TestEncodeWAVDecode(t *testing.T) {
	pcm := make([]float32, SampleRate/2)
	for i := range pcm {
		pcm[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, pcm, SampleRate))
	require.NoError(t, f.Close())

	got, err := Decode(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, got, len(pcm))
	for i := 0; i < len(pcm); i += 997 {
		assert.InDelta(t, pcm[i], got[i], 1e-3)
	}

	capped, err := Decode(context.Background(), path, Options{MaxSamples: 100})
	require.NoError(t, err)
	assert.Len(t, capped, 100)
}

func TestDecodeUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := Decode(context.Background(), path, Options{})
	assert.ErrorContains(t, err, "unsupported format")
}
