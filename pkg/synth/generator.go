// Package synth implements the sound sources driven by the engine: voices,
// envelopes, the note event handoff and the generators that own them.
package synth

import (
	"sync/atomic"

	"github.com/evilstudio/evilstudio/pkg/dsp"
	"github.com/evilstudio/evilstudio/pkg/note"
)

// Kind tags the concrete type behind a Generator so control surfaces can
// pick a layout without type assertions.
type Kind int

const (
	KindWaveform Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindWaveform:
		return "waveform"
	default:
		return "unknown"
	}
}

// Generator is a sound source. Process runs on the audio thread; every
// other method may be called from any goroutine.
type Generator interface {
	Name() string
	Kind() Kind
	Params() *Params
	// Process drains pending note events and mixes frames of audio into buf.
	Process(buf []float32, channels, frames int, currentSample uint64)
	NoteOn(n note.Note)
	NoteOff(n note.Note)
	// Reset drops every voice at the start of the next Process call.
	Reset()
	VoiceCount() int
	// Dropped counts note events lost because the queue was full.
	Dropped() uint64
}

const maxVoices = 256

// Base holds the state shared by all generators.
type Base struct {
	name   string
	params *Params
	volume *Param
	pan    *Param

	queue  *noteQueue
	voices []Voice

	voiceCount atomic.Int64
	flush      atomic.Bool
}

func newBase(name string) Base {
	params := NewParams()
	return Base{
		name:   name,
		params: params,
		volume: params.MustRegister(&Param{Name: "volume", Min: 0, Max: 1, Step: 0.05}, 0.5),
		pan:    params.MustRegister(&Param{Name: "pan", Min: -1, Max: 1, Step: 0.1}, 0),
		queue:  newNoteQueue(DefaultQueueSize),
		voices: make([]Voice, 0, maxVoices),
	}
}

func (b *Base) Name() string    { return b.name }
func (b *Base) Params() *Params { return b.params }

func (b *Base) NoteOn(n note.Note)  { b.queue.pushOn(n) }
func (b *Base) NoteOff(n note.Note) { b.queue.pushOff(n) }

func (b *Base) Reset() { b.flush.Store(true) }

func (b *Base) VoiceCount() int { return int(b.voiceCount.Load()) }

func (b *Base) Dropped() uint64 { return b.queue.dropped.Load() }

// begin applies a pending reset and swaps the event queue. It returns the
// slot to drain.
func (b *Base) begin() uint32 {
	if b.flush.Swap(false) {
		b.voices = b.voices[:0]
	}
	return b.queue.swap()
}

// releaseVoices moves every voice started by number into release.
func (b *Base) releaseVoices(number int, sample uint64) {
	for i := range b.voices {
		if b.voices[i].ID == number {
			b.voices[i].release(sample)
		}
	}
}

// render mixes every voice into buf and removes finished voices.
func (b *Base) render(w dsp.Waveform, buf []float32, channels, frames int, current uint64) {
	volume := b.volume.Get()
	pan := b.pan.Get()

	if channels > 0 {
		frames = min(frames, len(buf)/channels)
	}
	for f := 0; f < frames; f++ {
		sample := current + uint64(f)
		var left, right float64
		for i := range b.voices {
			v := &b.voices[i]
			if v.dead {
				continue
			}
			l, r, kill := v.next(w, sample, volume)
			left += l
			right += r
			if kill {
				v.dead = true
			}
		}
		left, right = dsp.Pan(left, right, pan)

		o := f * channels
		switch channels {
		case 0:
		case 1:
			buf[o] += float32(left + right)
		default:
			buf[o] += float32(left)
			buf[o+1] += float32(right)
		}
	}

	live := b.voices[:0]
	for _, v := range b.voices {
		if !v.dead {
			live = append(live, v)
		}
	}
	b.voices = live
	b.voiceCount.Store(int64(len(b.voices)))
}
