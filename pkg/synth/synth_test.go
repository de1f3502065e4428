package synth

import (
	"math"
	"sync"
	"testing"

	"github.com/Southclaws/fault/ftag"

	"github.com/evilstudio/evilstudio/pkg/dsp"
	"github.com/evilstudio/evilstudio/pkg/note"
)

func TestEnvelopeSustain(t *testing.T) {
	env := Envelope{AttackTime: 100, DecayTime: 50, SustainLevel: 0.7}
	var gain float64
	for s := uint64(0); s < 1000; s++ {
		gain, _ = env.Process(s, 0)
		if s >= 150 && gain != 0.7 {
			t.Fatalf("sample %d: gain %v, want sustain level", s, gain)
		}
	}
	if env.State != Sustain {
		t.Errorf("state = %v, want sustain", env.State)
	}
}

func TestEnvelopeStages(t *testing.T) {
	env := Envelope{AttackTime: 100, DecayTime: 100, SustainLevel: 0.5}
	tests := []struct {
		sample uint64
		want   float64
		state  EnvelopeState
	}{
		{0, 0, Attack},
		{50, 0.5, Attack},
		{100, 1, Decay},
		{150, 0.75, Decay},
		{200, 0.5, Sustain},
	}
	for _, tst := range tests {
		got, kill := env.Process(tst.sample, 0)
		if math.Abs(got-tst.want) > 1e-9 || kill || env.State != tst.state {
			t.Errorf("sample %d: got (%v, %v, %v), want (%v, false, %v)",
				tst.sample, got, kill, env.State, tst.want, tst.state)
		}
	}
}

func TestEnvelopeReleaseContinuity(t *testing.T) {
	env := Envelope{AttackTime: 100, DecayTime: 100, SustainLevel: 0.5, ReleaseTime: 100}
	var last float64
	for s := uint64(0); s < 30; s++ {
		last, _ = env.Process(s, 0)
	}
	if !env.EnterRelease() {
		t.Fatal("EnterRelease returned false")
	}
	if env.ReleaseStartAmplitude != last {
		t.Fatalf("release starts at %v, previous gain was %v", env.ReleaseStartAmplitude, last)
	}
	if got, _ := env.Process(30, 30); got != last {
		t.Errorf("first release sample = %v, want %v", got, last)
	}

	for s := uint64(31); s < 130; s++ {
		if _, kill := env.Process(s, 30); kill {
			t.Fatalf("killed early at %d", s)
		}
	}
	gain, kill := env.Process(130, 30)
	if !kill || gain != 0 {
		t.Errorf("after release time: got (%v, %v), want (0, true)", gain, kill)
	}
}

func TestEnvelopeReleaseOnce(t *testing.T) {
	env := Envelope{State: Sustain, SustainLevel: 0.8, CurrentAmplitude: 0.8, ReleaseTime: 10}
	env.EnterRelease()
	env.Process(5, 0)
	if env.EnterRelease() {
		t.Error("second EnterRelease should be ignored")
	}
	if env.ReleaseStartAmplitude != 0.8 {
		t.Errorf("release start changed to %v", env.ReleaseStartAmplitude)
	}
}

func TestEnvelopeZeroLengthStages(t *testing.T) {
	env := Envelope{SustainLevel: 0.3}
	for s := uint64(0); s < 3; s++ {
		if g, _ := env.Process(s, 0); math.IsNaN(g) {
			t.Fatalf("NaN gain at %d", s)
		}
	}
	if env.State != Sustain {
		t.Fatalf("state = %v, want sustain", env.State)
	}
	env.EnterRelease()
	if g, kill := env.Process(3, 3); !kill || g != 0 {
		t.Errorf("zero release: got (%v, %v)", g, kill)
	}
}

func newTestGenerator(t *testing.T) *WaveformGenerator {
	t.Helper()
	g := NewWaveformGenerator("test")
	for name, v := range map[string]float64{"attack": 0.01, "decay": 0.01, "release": 0.01} {
		if err := g.Params().Set(name, v); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestNoteOnExactlyOnce(t *testing.T) {
	g := newTestGenerator(t)
	buf := make([]float32, 128)

	g.NoteOn(note.Note{Number: 60, Velocity: 127})
	g.Process(buf, 2, 64, 0)
	if got := g.VoiceCount(); got != 1 {
		t.Fatalf("voices after first cycle = %d, want 1", got)
	}
	for i := range g.queue.on {
		if len(g.queue.on[i]) != 0 || len(g.queue.off[i]) != 0 {
			t.Fatalf("queue slot %d not empty after Process", i)
		}
	}

	g.Process(buf, 2, 64, 64)
	if got := g.VoiceCount(); got != 1 {
		t.Errorf("voices after second cycle = %d, want 1", got)
	}
}

func TestVoiceRemovedAfterRelease(t *testing.T) {
	g := newTestGenerator(t)
	buf := make([]float32, 2*1024)

	g.NoteOn(note.Note{Number: 64, Velocity: 100})
	g.Process(buf, 2, 1024, 0)
	if g.VoiceCount() != 1 {
		t.Fatalf("voice not started")
	}

	g.NoteOff(note.Note{Number: 64})
	g.Process(buf, 2, 1024, 1024)
	if got := g.VoiceCount(); got != 0 {
		t.Errorf("voices after release = %d, want 0", got)
	}
}

func TestNoteOffWithoutVoice(t *testing.T) {
	g := newTestGenerator(t)
	buf := make([]float32, 128)

	g.NoteOn(note.Note{Number: 60, Velocity: 127})
	g.NoteOff(note.Note{Number: 61})
	g.Process(buf, 2, 64, 0)
	if got := g.VoiceCount(); got != 1 {
		t.Errorf("voices = %d, want 1", got)
	}
	if g.voices[0].Envelope.State == Release {
		t.Error("unrelated note-off released a voice")
	}
}

func TestUnisonSpread(t *testing.T) {
	g := newTestGenerator(t)
	if err := g.Params().Set("unison", 4); err != nil {
		t.Fatal(err)
	}
	g.NoteOn(note.Note{Number: 69, Velocity: 127})
	g.Process(make([]float32, 2), 2, 1, 0)

	if len(g.voices) != 4 {
		t.Fatalf("voices = %d, want 4", len(g.voices))
	}
	wantPan := []float64{-1, -1.0 / 3, 1.0 / 3, 1}
	for i, v := range g.voices {
		if v.Amplitude != 0.25 {
			t.Errorf("voice %d amplitude = %v, want 0.25", i, v.Amplitude)
		}
		if math.Abs(v.Pan-wantPan[i]) > 1e-9 {
			t.Errorf("voice %d pan = %v, want %v", i, v.Pan, wantPan[i])
		}
		j := len(g.voices) - 1 - i
		if ratio := v.Frequency * g.voices[j].Frequency / (440 * 440); math.Abs(ratio-1) > 1e-9 {
			t.Errorf("voices %d and %d not symmetric around 440 Hz", i, j)
		}
	}
	if g.voices[0].Frequency >= 440 || g.voices[3].Frequency <= 440 {
		t.Error("detune should spread below and above the base frequency")
	}
}

func TestSingleVoiceIsCentered(t *testing.T) {
	g := newTestGenerator(t)
	g.NoteOn(note.Note{Number: 69, Velocity: 127})
	g.Process(make([]float32, 2), 2, 1, 0)
	v := g.voices[0]
	if v.Pan != 0 || v.Frequency != 440 || v.Amplitude != 1 {
		t.Errorf("unexpected voice %+v", v)
	}
}

func TestPhaseRandomization(t *testing.T) {
	g := newTestGenerator(t)
	if err := g.Params().Set("phase_random", math.Pi); err != nil {
		t.Fatal(err)
	}
	if err := g.Params().Set("unison", 8); err != nil {
		t.Fatal(err)
	}
	g.NoteOn(note.Note{Number: 60, Velocity: 127})
	g.Process(make([]float32, 2), 2, 1, 0)
	for i, v := range g.voices {
		step := dsp.TwoPi * v.Frequency / dsp.SampleRate
		if start := v.Phase - step; start < -1e-9 || start >= math.Pi {
			t.Errorf("voice %d start phase %v outside [0, π)", i, start)
		}
	}
}

func TestProcessMixesAdditively(t *testing.T) {
	g := newTestGenerator(t)
	if err := g.Params().Set("waveform", float64(dsp.Square)); err != nil {
		t.Fatal(err)
	}
	g.NoteOn(note.Note{Number: 60, Velocity: 127})

	buf := []float32{1, 1, 1, 1}
	g.Process(buf, 2, 2, 0)
	if buf[0] != 1 || buf[1] != 1 {
		t.Errorf("first frame should be silent under a rising attack: %v", buf[:2])
	}
	if buf[2] <= 1 || buf[2] != buf[3] {
		t.Errorf("second frame should add a centered signal: %v", buf[2:])
	}
}

func TestReset(t *testing.T) {
	g := newTestGenerator(t)
	buf := make([]float32, 128)
	g.NoteOn(note.Note{Number: 60, Velocity: 127})
	g.NoteOn(note.Note{Number: 64, Velocity: 127})
	g.Process(buf, 2, 64, 0)
	if g.VoiceCount() != 2 {
		t.Fatalf("voices = %d, want 2", g.VoiceCount())
	}
	g.Reset()
	g.Process(buf, 2, 64, 64)
	if g.VoiceCount() != 0 {
		t.Errorf("voices after reset = %d, want 0", g.VoiceCount())
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := newNoteQueue(2)
	for i := 0; i < 3; i++ {
		q.pushOn(note.Note{Number: i})
	}
	if got := q.dropped.Load(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
	if got := q.pending(); got != 2 {
		t.Errorf("pending = %d, want 2", got)
	}
	r := q.swap()
	if len(q.on[r]) != 2 || q.pending() != 0 {
		t.Errorf("swap did not hand over the write slot")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := newNoteQueue(64)

	const producers, perProducer = 4, 10_000
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.pushOn(note.Note{Number: 60})
				q.pushOff(note.Note{Number: 60})
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var received int
	drain := func() {
		r := q.swap()
		received += len(q.on[r]) + len(q.off[r])
		q.clear(r)
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			drain()
		}
	}
	drain()
	drain()

	if total := received + int(q.dropped.Load()); total != 2*producers*perProducer {
		t.Errorf("received %d + dropped %d, want %d", received, q.dropped.Load(), 2*producers*perProducer)
	}
}

func TestParamRange(t *testing.T) {
	g := NewWaveformGenerator("p")
	err := g.Params().Set("sustain", 1.5)
	if err == nil {
		t.Fatal("expected range error")
	}
	if ftag.Get(err) != ftag.InvalidArgument {
		t.Errorf("tag = %v, want invalid argument", ftag.Get(err))
	}
	if err := g.Params().Set("nope", 1); ftag.Get(err) != ftag.NotFound {
		t.Errorf("unknown param tag = %v", ftag.Get(err))
	}

	p, _ := g.Params().Lookup("unison")
	p.Nudge(100)
	if p.Int() != 16 {
		t.Errorf("nudge should clamp to max, got %v", p.Get())
	}
	w, _ := g.Params().Lookup("waveform")
	if w.String() != "Sine" {
		t.Errorf("waveform label = %q", w.String())
	}
}

func TestParamsOrder(t *testing.T) {
	var names []string
	for _, p := range NewWaveformGenerator("o").Params().All() {
		names = append(names, p.Name)
	}
	want := []string{"volume", "pan", "waveform", "attack", "decay", "sustain", "release", "unison", "detune", "phase_random"}
	if len(names) != len(want) {
		t.Fatalf("params = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("params = %v, want %v", names, want)
		}
	}
}
