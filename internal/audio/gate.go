// Package audio holds the device-independent parts of microphone capture and
// playback: the energy gate that cuts one phrase out of the microphone
// stream, stderr suppression around audio devices and ducking of other
// applications while the assistant speaks.
package audio

import (
	"math"
	"time"
)

const (
	SampleRate = 16000
	FrameSize  = 320 // 20ms
	FrameDur   = time.Second * FrameSize / SampleRate
)

// Gate decides which frames are speech. Energies are RMS of samples in [-1, 1].
// The threshold is the only state the assistant keeps across turns.
type Gate struct {
	Threshold float64
	Dynamic   bool          // adapt the threshold while waiting for speech
	Ratio     float64       // target threshold = ambient energy * Ratio
	Damping   float64       // per-second damping of threshold updates
	Pause     time.Duration // silence that ends a phrase
	MinPhrase time.Duration // shorter bursts are discarded as noise
	PreRoll   time.Duration // audio kept from before speech starts
	MaxPhrase time.Duration
	Timeout   time.Duration // give up waiting for speech, 0 = wait forever
}

// DefaultGate mirrors the classic recognizer settings: energy 5000 on the
// int16 scale, dynamic adaptation and a one second pause.
func DefaultGate() *Gate {
	return &Gate{
		Threshold: 5000.0 / 32768.0,
		Dynamic:   true,
		Ratio:     1.5,
		Damping:   0.15,
		Pause:     time.Second,
		MinPhrase: 300 * time.Millisecond,
		PreRoll:   500 * time.Millisecond,
		MaxPhrase: 15 * time.Second,
	}
}

// Update moves the threshold toward Ratio times the ambient energy of one frame.
func (g *Gate) Update(energy float64, frame time.Duration) {
	damping := math.Pow(g.Damping, frame.Seconds())
	target := energy * g.Ratio
	g.Threshold = g.Threshold*damping + target*(1-damping)
}

// Calibrate adjusts the threshold from frames of ambient noise.
func (g *Gate) Calibrate(frames [][]float32) {
	for _, f := range frames {
		g.Update(FrameRMS(f), frameDuration(f))
	}
}

// Phrase collects one utterance frame by frame.
type Phrase struct {
	gate     *Gate
	preroll  [][]float32
	out      []float32
	speaking bool
	voiced   time.Duration
	silence  time.Duration
	waited   time.Duration
}

func (g *Gate) NewPhrase() *Phrase {
	return &Phrase{gate: g}
}

// Push feeds one frame and reports whether the phrase is complete. A phrase
// that timed out before any speech is complete with no samples.
func (p *Phrase) Push(frame []float32) bool {
	g := p.gate
	d := frameDuration(frame)
	energy := FrameRMS(frame)
	loud := energy > g.Threshold

	if !p.speaking {
		if !loud {
			if g.Dynamic {
				g.Update(energy, d)
			}
			p.keepPreRoll(frame)
			p.waited += d
			return g.Timeout > 0 && p.waited >= g.Timeout
		}
		p.speaking = true
		for _, f := range p.preroll {
			p.out = append(p.out, f...)
		}
		p.preroll = nil
	}

	p.out = append(p.out, frame...)
	if loud {
		p.voiced += d
		p.silence = 0
	} else {
		p.silence += d
	}

	if g.MaxPhrase > 0 && time.Duration(len(p.out))*time.Second/SampleRate >= g.MaxPhrase {
		return true
	}
	if p.silence < g.Pause {
		return false
	}
	if p.voiced >= g.MinPhrase {
		return true
	}

	// a click or a cough, start over
	p.speaking = false
	p.out = nil
	p.voiced = 0
	p.silence = 0
	return false
}

// Samples returns the captured phrase, nil when no speech was heard.
func (p *Phrase) Samples() []float32 {
	if !p.speaking {
		return nil
	}
	return p.out
}

func (p *Phrase) keepPreRoll(frame []float32) {
	keep := int(p.gate.PreRoll / FrameDur)
	if keep <= 0 {
		return
	}
	p.preroll = append(p.preroll, append([]float32(nil), frame...))
	if len(p.preroll) > keep {
		p.preroll = p.preroll[len(p.preroll)-keep:]
	}
}

func frameDuration(f []float32) time.Duration {
	return time.Duration(len(f)) * time.Second / SampleRate
}

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
