package sequencer

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/evilstudio/evilstudio/pkg/note"
)

var (
	ErrPatternNotFound  = errors.New("pattern not found")
	ErrSequenceExists   = errors.New("sequence already exists for generator")
	ErrSequenceNotFound = errors.New("no sequence for generator")
	ErrInvalidNote      = errors.New("invalid note")
	ErrNoteNotFound     = errors.New("note not found")
)

// DefaultNote seeds every new sequence: middle C for half a second.
var DefaultNote = note.Note{Number: 60, Velocity: note.MaxVelocity, StopTime: SliceSize / 2}

// State is the transport: a playing clock that advances only while
// playing, a processed clock that always advances, and the pattern tree.
//
// Clocks and the playing flag may be read from any goroutine. The pattern
// tree is guarded by mu; the audio thread only ever try-locks it.
type State struct {
	current   atomic.Uint64
	processed atomic.Uint64
	playing   atomic.Bool

	mu       sync.Mutex
	patterns []*Pattern
	nextID   int
	onReset  []func()
}

func NewState() *State {
	return &State{}
}

// Start resumes playback. Notes spanning the current position start
// immediately.
func (s *State) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing.Store(true)
	s.update(s.current.Load())
}

// Pause stops the clock and releases playing notes without forgetting them.
func (s *State) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing.Store(false)
	for _, p := range s.patterns {
		p.Pause()
	}
}

// Reset stops playback, rewinds to zero, runs the reset callbacks and
// stops every playing note.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing.Store(false)
	s.current.Store(0)
	for _, fn := range s.onReset {
		fn()
	}
	for _, p := range s.patterns {
		p.Stop()
	}
}

// OnReset registers fn to run on every Reset.
func (s *State) OnReset(fn func()) {
	s.mu.Lock()
	s.onReset = append(s.onReset, fn)
	s.mu.Unlock()
}

// MoveForward advances the playing clock and updates every pattern. It is
// called from the audio thread and does nothing while paused. If an editor
// holds the pattern tree, the update is deferred to the next call; notes
// are matched by span, so none are lost unless shorter than a buffer.
func (s *State) MoveForward(samples uint64) {
	if !s.playing.Load() {
		return
	}
	current := s.current.Add(samples)
	if !s.mu.TryLock() {
		return
	}
	s.update(current)
	s.mu.Unlock()
}

func (s *State) update(current uint64) {
	for _, p := range s.patterns {
		p.Update(current)
	}
}

// Processed advances the unconditional clock.
func (s *State) Processed(samples uint64) {
	s.processed.Add(samples)
}

func (s *State) CurrentSample() uint64        { return s.current.Load() }
func (s *State) CurrentProcessSample() uint64 { return s.processed.Load() }
func (s *State) IsPlaying() bool              { return s.playing.Load() }

// CurrentSlice is the position within the current second.
func (s *State) CurrentSlice() uint64 { return s.current.Load() % SliceSize }

// CurrentBucket is the number of whole seconds played.
func (s *State) CurrentBucket() uint64 { return s.current.Load() / SliceSize }

// NewPattern appends an empty pattern and returns its id.
func (s *State) NewPattern(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	if name == "" {
		name = fmt.Sprintf("Pattern %d", id)
	}
	s.patterns = append(s.patterns, &Pattern{Name: name, ID: id})
	return id
}

// RemovePattern stops and removes the pattern with id.
func (s *State) RemovePattern(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return patternNotFound(id)
	}
	s.patterns[i].Stop()
	s.patterns = slices.Delete(s.patterns, i, i+1)
	return nil
}

// AddSequence binds a new sequence for target to the pattern, seeded
// with DefaultNote. A pattern holds at most one sequence per target.
func (s *State) AddSequence(id int, target Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.pattern(id)
	if err != nil {
		return err
	}
	if seq, _ := p.sequence(target); seq != nil {
		return fault.Wrap(ErrSequenceExists,
			ftag.With(ftag.AlreadyExists),
			fmsg.WithDesc("sequence exists", "This generator already has a sequence in the pattern"))
	}
	p.Sequences = append(p.Sequences, &NoteSequence{
		Notes:  []note.Note{DefaultNote},
		Target: target,
	})
	return nil
}

// RemoveSequence stops and removes the sequence for target.
func (s *State) RemoveSequence(id int, target Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.pattern(id)
	if err != nil {
		return err
	}
	seq, i := p.sequence(target)
	if seq == nil {
		return sequenceNotFound()
	}
	seq.release(true)
	p.Sequences = slices.Delete(p.Sequences, i, i+1)
	return nil
}

// AddNote schedules n in the target's sequence.
func (s *State) AddNote(id int, target Target, n note.Note) error {
	if !n.ValidScheduled() {
		return fault.Wrap(ErrInvalidNote,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc(fmt.Sprintf("invalid note %+v", n),
				"Notes need a number and velocity in 0-127 and a stop time after the play time"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, err := s.sequence(id, target)
	if err != nil {
		return err
	}
	n.Playing = false
	seq.Notes = append(seq.Notes, n)
	return nil
}

// RemoveNote deletes the note at index, releasing it if it is playing.
func (s *State) RemoveNote(id int, target Target, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, err := s.sequence(id, target)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(seq.Notes) {
		return fault.Wrap(ErrNoteNotFound,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc(fmt.Sprintf("note index %d", index), fmt.Sprintf("No note %d in the sequence", index)))
	}
	if n := seq.Notes[index]; n.Playing {
		seq.Target.NoteOff(n)
	}
	seq.Notes = slices.Delete(seq.Notes, index, index+1)
	return nil
}

// PatternInfo is a snapshot of one pattern.
type PatternInfo struct {
	ID        int
	Name      string
	Sequences []SequenceInfo
}

type SequenceInfo struct {
	Target Target
	Notes  []note.Note
}

// Patterns returns a deep copy of the pattern tree.
func (s *State) Patterns() []PatternInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]PatternInfo, 0, len(s.patterns))
	for _, p := range s.patterns {
		info := PatternInfo{ID: p.ID, Name: p.Name}
		for _, seq := range p.Sequences {
			info.Sequences = append(info.Sequences, SequenceInfo{
				Target: seq.Target,
				Notes:  slices.Clone(seq.Notes),
			})
		}
		infos = append(infos, info)
	}
	return infos
}

func (s *State) index(id int) int {
	return slices.IndexFunc(s.patterns, func(p *Pattern) bool { return p.ID == id })
}

func (s *State) pattern(id int) (*Pattern, error) {
	i := s.index(id)
	if i < 0 {
		return nil, patternNotFound(id)
	}
	return s.patterns[i], nil
}

func (s *State) sequence(id int, target Target) (*NoteSequence, error) {
	p, err := s.pattern(id)
	if err != nil {
		return nil, err
	}
	seq, _ := p.sequence(target)
	if seq == nil {
		return nil, sequenceNotFound()
	}
	return seq, nil
}

func patternNotFound(id int) error {
	return fault.Wrap(ErrPatternNotFound,
		ftag.With(ftag.NotFound),
		fmsg.WithDesc(fmt.Sprintf("pattern %d", id), fmt.Sprintf("Pattern %d does not exist", id)))
}

func sequenceNotFound() error {
	return fault.Wrap(ErrSequenceNotFound,
		ftag.With(ftag.NotFound),
		fmsg.WithDesc("no sequence", "Add a sequence for this generator first"))
}
