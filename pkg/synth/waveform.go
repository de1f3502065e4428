package synth

import (
	"math"
	"math/rand/v2"

	"github.com/evilstudio/evilstudio/pkg/dsp"
	"github.com/evilstudio/evilstudio/pkg/note"
)

// WaveformGenerator is an oscillator generator with unison and a per-voice
// ADSR envelope.
type WaveformGenerator struct {
	Base

	waveform    *Param
	attack      *Param
	decay       *Param
	sustain     *Param
	release     *Param
	unison      *Param
	detune      *Param
	phaseRandom *Param

	rng *rand.Rand
}

var waveformLabels = func() []string {
	labels := make([]string, len(dsp.Waveforms))
	for i, w := range dsp.Waveforms {
		labels[i] = w.String()
	}
	return labels
}()

// NewWaveformGenerator returns a sine generator with default parameters.
func NewWaveformGenerator(name string) *WaveformGenerator {
	g := &WaveformGenerator{
		Base: newBase(name),
		rng:  rand.New(rand.NewPCG(uint64(len(name)), 0x9e3779b97f4a7c15)),
	}
	p := g.params
	g.waveform = p.MustRegister(&Param{Name: "waveform", Min: 0, Max: float64(len(dsp.Waveforms) - 1), Step: 1, Labels: waveformLabels}, float64(dsp.Sine))
	g.attack = p.MustRegister(&Param{Name: "attack", Min: 0.01, Max: 10, Step: 0.01, Unit: "s"}, 1)
	g.decay = p.MustRegister(&Param{Name: "decay", Min: 0.01, Max: 10, Step: 0.01, Unit: "s"}, 0.1)
	g.sustain = p.MustRegister(&Param{Name: "sustain", Min: 0, Max: 1, Step: 0.05}, 0.7)
	g.release = p.MustRegister(&Param{Name: "release", Min: 0.01, Max: 10, Step: 0.01, Unit: "s"}, 1)
	g.unison = p.MustRegister(&Param{Name: "unison", Min: 1, Max: 16, Step: 1}, 1)
	g.detune = p.MustRegister(&Param{Name: "detune", Min: 0, Max: 100, Step: 0.5, Unit: "c"}, 0.5)
	g.phaseRandom = p.MustRegister(&Param{Name: "phase_random", Min: 0, Max: dsp.TwoPi, Step: 0.1}, 0)
	return g
}

func (g *WaveformGenerator) Kind() Kind { return KindWaveform }

// Waveform returns the selected oscillator shape.
func (g *WaveformGenerator) Waveform() dsp.Waveform {
	return dsp.Waveform(g.waveform.Int())
}

func (g *WaveformGenerator) Process(buf []float32, channels, frames int, currentSample uint64) {
	r := g.begin()
	for _, n := range g.queue.on[r] {
		g.start(n, currentSample)
	}
	for _, n := range g.queue.off[r] {
		g.releaseVoices(n.Number, currentSample)
	}
	g.queue.clear(r)

	g.render(g.Waveform(), buf, channels, frames, currentSample)
}

// start creates the unison voices for n.
func (g *WaveformGenerator) start(n note.Note, sample uint64) {
	env := Envelope{
		State:        Attack,
		AttackTime:   seconds(g.attack.Get()),
		DecayTime:    seconds(g.decay.Get()),
		SustainLevel: g.sustain.Get(),
		ReleaseTime:  seconds(g.release.Get()),
	}

	count := g.unison.Int()
	detune := g.detune.Get()
	spread := g.phaseRandom.Get()
	freq := note.Frequency(n.Number)
	amp := float64(n.Velocity) / note.MaxVelocity / float64(count)

	for i := 0; i < count; i++ {
		if len(g.voices) == cap(g.voices) {
			return
		}
		cents := (float64(i) - float64(count-1)/2) * detune
		v := Voice{
			Frequency:    freq * math.Pow(2, cents/1200),
			Amplitude:    amp,
			ID:           n.Number,
			CreationTime: sample,
			Envelope:     env,
		}
		if count > 1 {
			v.Pan = float64(i)/float64(count-1)*2 - 1
		}
		if spread > 0 {
			v.Phase = g.rng.Float64() * spread
		}
		g.voices = append(g.voices, v)
	}
}

func seconds(s float64) uint64 {
	return uint64(s * dsp.SampleRate)
}
