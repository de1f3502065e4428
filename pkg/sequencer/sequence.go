// Package sequencer schedules stored notes against the transport clock.
package sequencer

import (
	"github.com/evilstudio/evilstudio/pkg/note"
)

// SliceSize is one second of samples, the unit of the coarse position display.
const SliceSize = 44100

// Target receives the note events of a sequence. synth.Generator satisfies it.
type Target interface {
	NoteOn(n note.Note)
	NoteOff(n note.Note)
}

// NoteSequence is a list of notes played on one target. The target is not owned.
type NoteSequence struct {
	Notes  []note.Note
	Target Target
}

// Update starts notes whose span contains current and stops playing notes
// whose stop time has passed. Note-Offs go out first. A note starting on a
// number stopped in the same call waits for the next call, so the target
// does not release it together with the note that ended.
func (s *NoteSequence) Update(current uint64) {
	var stopped [note.MaxNumber + 1]bool
	for i := range s.Notes {
		n := &s.Notes[i]
		if n.Playing && n.StopTime <= current {
			s.Target.NoteOff(*n)
			n.Playing = false
			if n.Number >= note.MinNumber && n.Number <= note.MaxNumber {
				stopped[n.Number] = true
			}
		}
	}
	for i := range s.Notes {
		n := &s.Notes[i]
		if n.Playing || current < n.PlayTime || current >= n.StopTime {
			continue
		}
		if n.Number >= note.MinNumber && n.Number <= note.MaxNumber && stopped[n.Number] {
			continue
		}
		s.Target.NoteOn(*n)
		n.Playing = true
	}
}

// release sends Note-Off for every playing note. clear also resets the
// playing flags.
func (s *NoteSequence) release(clear bool) {
	for i := range s.Notes {
		n := &s.Notes[i]
		if !n.Playing {
			continue
		}
		s.Target.NoteOff(*n)
		if clear {
			n.Playing = false
		}
	}
}
