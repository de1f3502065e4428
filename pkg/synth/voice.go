package synth

import (
	"github.com/evilstudio/evilstudio/pkg/dsp"
)

// Voice is one sounding instance of a note.
type Voice struct {
	Frequency float64
	Amplitude float64
	Phase     float64
	Pan       float64
	// ID is the note number that started the voice.
	ID           int
	CreationTime uint64
	Envelope     Envelope

	dead bool
}

// next advances the oscillator by one sample and returns the enveloped,
// panned output. kill reports that the envelope has finished.
func (v *Voice) next(w dsp.Waveform, sample uint64, volume float64) (l, r float64, kill bool) {
	v.Phase += dsp.TwoPi * v.Frequency / dsp.SampleRate
	for v.Phase >= dsp.TwoPi {
		v.Phase -= dsp.TwoPi
	}

	gain, kill := v.Envelope.Process(sample, v.CreationTime)
	s := dsp.Generate(w, v.Phase) * v.Amplitude * volume * gain
	l, r = dsp.Pan(s, s, v.Pan)
	return l, r, kill
}

// release starts the release stage at sample. Voices already releasing
// keep their original timing.
func (v *Voice) release(sample uint64) {
	if v.Envelope.EnterRelease() {
		v.CreationTime = sample
	}
}
