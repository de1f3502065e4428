// Package audio mixes the registered generators into the device stream and
// drives the sequencer clock.
package audio

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/evilstudio/evilstudio/pkg/dsp"
	"github.com/evilstudio/evilstudio/pkg/note"
	"github.com/evilstudio/evilstudio/pkg/sequencer"
	"github.com/evilstudio/evilstudio/pkg/synth"
)

const (
	SampleRate = dsp.SampleRate
	Channels   = 2

	DefaultBufferFrames = 512
)

// Backend owns the generator registry, the sequencer and the master
// controls. Process is the device callback.
type Backend struct {
	generators atomic.Pointer[[]synth.Generator]
	regMu      sync.Mutex

	selected atomic.Int64
	volume   atomic.Uint64
	pan      atomic.Uint64

	seq *sequencer.State

	// scratch is only touched by Process.
	scratch []float32

	log *slog.Logger
}

type Option func(*Backend)

func WithLogger(log *slog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithBufferFrames preallocates the mix buffer for callbacks of n frames.
func WithBufferFrames(n int) Option {
	return func(b *Backend) { b.scratch = make([]float32, n*Channels) }
}

// New returns a backend with no generators, master volume 0.5 and pan 0.
func New(opts ...Option) *Backend {
	b := &Backend{
		seq:     sequencer.NewState(),
		scratch: make([]float32, DefaultBufferFrames*Channels),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.generators.Store(&[]synth.Generator{})
	b.selected.Store(-1)
	b.SetMasterVolume(0.5)
	b.SetMasterPan(0)

	b.seq.OnReset(func() {
		for _, g := range b.Generators() {
			g.Reset()
		}
	})
	return b
}

// AddGenerator registers g and returns its index. It is safe to call while
// audio is running.
func (b *Backend) AddGenerator(g synth.Generator) int {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	old := *b.generators.Load()
	gens := make([]synth.Generator, len(old), len(old)+1)
	copy(gens, old)
	gens = append(gens, g)
	b.generators.Store(&gens)
	b.log.Info("generator added", "index", len(gens)-1, "name", g.Name(), "kind", g.Kind())
	return len(gens) - 1
}

// Generators returns the registry. The slice must not be modified.
func (b *Backend) Generators() []synth.Generator {
	return *b.generators.Load()
}

// Generator returns the generator at index i.
func (b *Backend) Generator(i int) (synth.Generator, bool) {
	gens := b.Generators()
	if i < 0 || i >= len(gens) {
		return nil, false
	}
	return gens[i], true
}

// SelectGenerator makes generator i the target of live input. -1 clears
// the selection.
func (b *Backend) SelectGenerator(i int) bool {
	if i != -1 {
		if _, ok := b.Generator(i); !ok {
			return false
		}
	}
	b.selected.Store(int64(i))
	return true
}

func (b *Backend) Selected() int {
	return int(b.selected.Load())
}

// NoteOn sends a live note to the selected generator. Velocity 0 is a
// Note-Off. Without a selection it does nothing.
func (b *Backend) NoteOn(number, velocity int) {
	if velocity == 0 {
		b.NoteOff(number)
		return
	}
	n := note.Note{Number: number, Velocity: velocity}
	if !n.Valid() {
		return
	}
	if g, ok := b.Generator(b.Selected()); ok {
		g.NoteOn(n)
	}
}

// NoteOff releases a live note on the selected generator.
func (b *Backend) NoteOff(number int) {
	n := note.Note{Number: number}
	if !n.Valid() {
		return
	}
	if g, ok := b.Generator(b.Selected()); ok {
		g.NoteOff(n)
	}
}

func (b *Backend) MasterVolume() float64 {
	return math.Float64frombits(b.volume.Load())
}

// SetMasterVolume sets the output gain, clamped to [0, 1].
func (b *Backend) SetMasterVolume(v float64) {
	b.volume.Store(math.Float64bits(clamp(v, 0, 1)))
}

func (b *Backend) MasterPan() float64 {
	return math.Float64frombits(b.pan.Load())
}

// SetMasterPan sets the output pan, clamped to [-1, 1].
func (b *Backend) SetMasterPan(p float64) {
	b.pan.Store(math.Float64bits(clamp(p, -1, 1)))
}

func (b *Backend) Sequencer() *sequencer.State {
	return b.seq
}

// GeneratorInfo describes one registry entry for display.
type GeneratorInfo struct {
	Index    int
	Name     string
	Kind     synth.Kind
	Volume   float64
	Pan      float64
	Voices   int
	Dropped  uint64
	Selected bool
}

func (b *Backend) GeneratorInfo() []GeneratorInfo {
	gens := b.Generators()
	sel := b.Selected()
	infos := make([]GeneratorInfo, len(gens))
	for i, g := range gens {
		info := GeneratorInfo{
			Index:    i,
			Name:     g.Name(),
			Kind:     g.Kind(),
			Voices:   g.VoiceCount(),
			Dropped:  g.Dropped(),
			Selected: i == sel,
		}
		if p, ok := g.Params().Lookup("volume"); ok {
			info.Volume = p.Get()
		}
		if p, ok := g.Params().Lookup("pan"); ok {
			info.Pan = p.Get()
		}
		infos[i] = info
	}
	return infos
}

// Process fills out with the next len(out)/2 interleaved stereo frames.
func (b *Backend) Process(out []float32) {
	frames := len(out) / Channels
	if len(b.scratch) < len(out) {
		b.scratch = make([]float32, len(out))
	}
	buf := b.scratch[:len(out)]
	clear(buf)

	current := b.seq.CurrentProcessSample()
	for _, g := range b.Generators() {
		g.Process(buf, Channels, frames, current)
	}

	dsp.PanBuffer(buf, b.MasterPan())

	b.seq.MoveForward(uint64(frames))
	b.seq.Processed(uint64(frames))

	vol := float32(b.MasterVolume())
	for i := range buf {
		out[i] = buf[i] * vol
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
