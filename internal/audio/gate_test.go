package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(v float32) []float32 {
	f := make([]float32, FrameSize)
	for i := range f {
		f[i] = v
	}
	return f
}

func framesFor(d time.Duration, v float32) [][]float32 {
	n := int(d / FrameDur)
	out := make([][]float32, n)
	for i := range out {
		out[i] = frameOf(v)
	}
	return out
}

func testGate() *Gate {
	g := DefaultGate()
	g.Threshold = 0.1
	g.Dynamic = false
	return g
}

func TestFrameRMS(t *testing.T) {
	assert.InDelta(t, 0.5, FrameRMS(frameOf(0.5)), 1e-9)
	assert.InDelta(t, 0.5, FrameRMS(frameOf(-0.5)), 1e-9)
	assert.Zero(t, FrameRMS(nil))
}

func TestCalibrateMovesTowardAmbient(t *testing.T) {
	g := DefaultGate()
	start := g.Threshold

	g.Calibrate(framesFor(time.Second, 0.01))
	assert.Less(t, g.Threshold, start)

	// damping 0.15 per second leaves 15% of the old threshold after one second
	want := start*0.15 + 0.015*0.85
	assert.InDelta(t, want, g.Threshold, 1e-6)
}

func TestPhraseEndsAfterPause(t *testing.T) {
	g := testGate()
	p := g.NewPhrase()

	for _, f := range framesFor(time.Second, 0.01) {
		require.False(t, p.Push(f))
	}
	for _, f := range framesFor(600*time.Millisecond, 0.5) {
		require.False(t, p.Push(f))
	}

	done := false
	var n int
	for _, f := range framesFor(2*time.Second, 0.01) {
		n++
		if p.Push(f) {
			done = true
			break
		}
	}
	require.True(t, done)
	assert.Equal(t, int(g.Pause/FrameDur), n)

	// pre-roll + voiced + trailing silence
	want := int((g.PreRoll + 600*time.Millisecond + g.Pause) / FrameDur * FrameSize)
	assert.Len(t, p.Samples(), want)
}

func TestPhraseDiscardsShortBurst(t *testing.T) {
	g := testGate()
	g.PreRoll = 0
	p := g.NewPhrase()

	for _, f := range framesFor(100*time.Millisecond, 0.5) {
		p.Push(f)
	}
	for _, f := range framesFor(g.Pause, 0.01) {
		require.False(t, p.Push(f), "a short burst must not complete a phrase")
	}
	assert.Nil(t, p.Samples())
}

func TestPhraseTimeout(t *testing.T) {
	g := testGate()
	g.Timeout = 200 * time.Millisecond
	p := g.NewPhrase()

	done := false
	for _, f := range framesFor(time.Second, 0) {
		if p.Push(f) {
			done = true
			break
		}
	}
	assert.True(t, done)
	assert.Nil(t, p.Samples())
}

func TestPhraseMaxLength(t *testing.T) {
	g := testGate()
	g.PreRoll = 0
	g.MaxPhrase = 500 * time.Millisecond
	p := g.NewPhrase()

	done := false
	for _, f := range framesFor(2*time.Second, 0.5) {
		if p.Push(f) {
			done = true
			break
		}
	}
	assert.True(t, done)
	assert.Len(t, p.Samples(), SampleRate/2)
}

func TestDynamicThresholdAdaptsWhileWaiting(t *testing.T) {
	g := DefaultGate()
	start := g.Threshold
	p := g.NewPhrase()
	for _, f := range framesFor(500*time.Millisecond, 0.001) {
		p.Push(f)
	}
	assert.Less(t, g.Threshold, start)
}
