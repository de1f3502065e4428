package synth

// EnvelopeState is the stage of an ADSR envelope.
type EnvelopeState int

const (
	Attack EnvelopeState = iota
	Decay
	Sustain
	Release
)

func (s EnvelopeState) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// Envelope is a per-voice ADSR state machine. Stage lengths are in samples
// and are measured from the owning voice's creation time, which is rebased
// to the release start sample when the envelope enters Release.
type Envelope struct {
	State EnvelopeState

	AttackTime   uint64
	DecayTime    uint64
	SustainLevel float64
	ReleaseTime  uint64

	CurrentAmplitude      float64
	ReleaseStartAmplitude float64
}

// Process returns the gain for sample, given the voice creation time.
// kill is true once the release stage has run its course.
func (e *Envelope) Process(sample, creation uint64) (gain float64, kill bool) {
	switch e.State {
	case Attack:
		if sample >= creation+e.AttackTime {
			e.State = Decay
			e.CurrentAmplitude = 1.0
			return 1.0, false
		}
		var t float64
		if sample > creation {
			t = float64(sample-creation) / float64(e.AttackTime)
		}
		e.CurrentAmplitude = lerp(0, 1, t)

	case Decay:
		end := creation + e.AttackTime
		if sample >= end+e.DecayTime {
			e.State = Sustain
			e.CurrentAmplitude = e.SustainLevel
			return e.SustainLevel, false
		}
		var t float64
		if sample > end {
			t = float64(sample-end) / float64(e.DecayTime)
		}
		e.CurrentAmplitude = lerp(1, e.SustainLevel, t)

	case Sustain:
		e.CurrentAmplitude = e.SustainLevel

	case Release:
		if sample >= creation+e.ReleaseTime {
			e.CurrentAmplitude = 0
			return 0, true
		}
		var t float64
		if sample > creation {
			t = float64(sample-creation) / float64(e.ReleaseTime)
		}
		e.CurrentAmplitude = lerp(e.ReleaseStartAmplitude, 0, t)

	default:
		e.CurrentAmplitude = 0
	}
	return e.CurrentAmplitude, false
}

// EnterRelease switches to the release stage, starting from the current
// gain. It has no effect on an envelope that is already releasing.
func (e *Envelope) EnterRelease() bool {
	if e.State == Release {
		return false
	}
	e.ReleaseStartAmplitude = e.CurrentAmplitude
	e.State = Release
	return true
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
