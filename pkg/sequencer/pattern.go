package sequencer

// Pattern groups note sequences, at most one per target.
type Pattern struct {
	Name      string
	ID        int
	Sequences []*NoteSequence
}

func (p *Pattern) Update(current uint64) {
	for _, s := range p.Sequences {
		s.Update(current)
	}
}

// Stop releases every playing note and clears its playing flag.
func (p *Pattern) Stop() {
	for _, s := range p.Sequences {
		s.release(true)
	}
}

// Pause releases every playing note but keeps the flags, so notes are not
// retriggered when playback resumes.
func (p *Pattern) Pause() {
	for _, s := range p.Sequences {
		s.release(false)
	}
}

func (p *Pattern) sequence(t Target) (*NoteSequence, int) {
	for i, s := range p.Sequences {
		if s.Target == t {
			return s, i
		}
	}
	return nil, -1
}
