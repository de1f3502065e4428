// Package dsp holds the stateless signal helpers used by the synthesis engine.
package dsp

import (
	"math"
	"math/rand/v2"
)

const (
	SampleRate = 44100
	TwoPi      = 2 * math.Pi

	// NoiseSamples is the length of the precomputed noise table, one second.
	NoiseSamples = SampleRate
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	Triangle
	Noise
)

// Waveforms lists every valid waveform in display order.
var Waveforms = []Waveform{Sine, Square, Saw, Triangle, Noise}

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "Sine"
	case Square:
		return "Square"
	case Saw:
		return "Saw"
	case Triangle:
		return "Triangle"
	case Noise:
		return "Noise"
	default:
		return "Unknown"
	}
}

var noiseTable = newNoiseTable(rand.New(rand.NewPCG(0x5eed, 0x0715e)))

func newNoiseTable(r *rand.Rand) []float64 {
	t := make([]float64, NoiseSamples)
	for i := range t {
		t[i] = r.Float64()*2 - 1
	}
	return t
}

// Generate evaluates waveform w at phase (radians). Unknown waveforms are silent.
func Generate(w Waveform, phase float64) float64 {
	p := math.Mod(phase, TwoPi)
	if p < 0 {
		p += TwoPi
	}

	switch w {
	case Sine:
		return math.Sin(p)
	case Square:
		return square(p)
	case Saw:
		return saw(p)
	case Triangle:
		return triangle(p)
	case Noise:
		return noise(p)
	default:
		return 0
	}
}

// Square wave: +1 for the first half cycle, -1 for the second
func square(p float64) float64 {
	if p < math.Pi {
		return 1.0
	}
	return -1.0
}

// Saw: ramp from -1 at phase 0 to +1 at 2π
func saw(p float64) float64 {
	return p/math.Pi - 1.0
}

func triangle(p float64) float64 {
	return (2.0 / math.Pi) * math.Asin(math.Sin(p))
}

func noise(p float64) float64 {
	return noiseTable[int(p*NoiseSamples/TwoPi)%NoiseSamples]
}
