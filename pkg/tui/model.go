// Package tui implements the terminal user interface
package tui

import (
	"strconv"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evilstudio/evilstudio/pkg/audio"
	"github.com/evilstudio/evilstudio/pkg/note"
	"github.com/evilstudio/evilstudio/pkg/sequencer"
	"github.com/evilstudio/evilstudio/pkg/synth"
)

// Focus is the panel receiving navigation keys
type Focus int

const (
	FocusGenerators Focus = iota
	FocusParams
	FocusPattern
	focusCount
)

const (
	// StepSamples is the length of one pattern editor row.
	StepSamples = sequencer.SliceSize / 4

	// LiveNoteLength is how long a key press sounds. Terminals report no
	// key release.
	LiveNoteLength = 300 * time.Millisecond

	volumeStep = 0.05
	panStep    = 0.1
)

// Model is the main TUI model
type Model struct {
	Backend *audio.Backend

	// View state
	Width  int
	Height int
	Focus  Focus

	GenCursor   int
	ParamCursor int

	// Pattern editor state
	PatternIdx int
	NoteIdx    int
	Row        int // insert position in steps
	Octave     int // Current input octave

	StatusMsg string

	keys keyMap
	help help.Model
}

// NewModel creates a new TUI model
func NewModel(b *audio.Backend) Model {
	return Model{
		Backend:   b,
		GenCursor: max(b.Selected(), 0),
		Octave:    4,
		Width:     100,
		Height:    30,
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
	)
}

// tickMsg is sent periodically to refresh the transport display
type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(16_666_666, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// noteOffMsg ends a note started from the keyboard
type noteOffMsg struct {
	number int
}

func noteOffCmd(number int) tea.Cmd {
	return tea.Tick(LiveNoteLength, func(time.Time) tea.Msg {
		return noteOffMsg{number: number}
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case noteOffMsg:
		m.Backend.NoteOff(msg.number)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	seq := m.Backend.Sequencer()
	k := m.keys

	switch {
	case key.Matches(msg, k.Quit):
		seq.Reset()
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll

	// Transport
	case key.Matches(msg, k.Play):
		if seq.IsPlaying() {
			seq.Pause()
		} else {
			seq.Start()
		}

	case key.Matches(msg, k.Stop):
		seq.Reset()

	case key.Matches(msg, k.VolUp):
		m.Backend.SetMasterVolume(m.Backend.MasterVolume() + volumeStep)
	case key.Matches(msg, k.VolDown):
		m.Backend.SetMasterVolume(m.Backend.MasterVolume() - volumeStep)
	case key.Matches(msg, k.PanLeft):
		m.Backend.SetMasterPan(m.Backend.MasterPan() - panStep)
	case key.Matches(msg, k.PanRight):
		m.Backend.SetMasterPan(m.Backend.MasterPan() + panStep)

	// Navigation
	case key.Matches(msg, k.Focus):
		m.Focus = (m.Focus + 1) % focusCount

	case key.Matches(msg, k.Up):
		m.move(-1)
	case key.Matches(msg, k.Down):
		m.move(1)
	case key.Matches(msg, k.Left):
		m.adjust(-1)
	case key.Matches(msg, k.Right):
		m.adjust(1)

	case key.Matches(msg, k.Select):
		if m.Focus == FocusGenerators && m.Backend.SelectGenerator(m.GenCursor) {
			m.ParamCursor = 0
			m.StatusMsg = "selected " + m.Backend.Generators()[m.GenCursor].Name()
		}

	// Octave
	case key.Matches(msg, k.OctUp):
		if m.Octave < 8 {
			m.Octave++
		}
	case key.Matches(msg, k.OctDown):
		if m.Octave > 0 {
			m.Octave--
		}

	// Patterns
	case key.Matches(msg, k.NewPat):
		id := seq.NewPattern("")
		m.PatternIdx = len(seq.Patterns()) - 1
		m.NoteIdx, m.Row = 0, 0
		m.StatusMsg = "created pattern " + strconv.Itoa(id)

	case key.Matches(msg, k.DelPat):
		if p, ok := m.pattern(); ok {
			m.setErr(seq.RemovePattern(p.ID), "removed "+p.Name)
			m.PatternIdx = max(m.PatternIdx-1, 0)
		}

	case key.Matches(msg, k.AddSeq):
		m.addSequence()

	case key.Matches(msg, k.DelNote):
		if m.Focus == FocusPattern {
			m.removeNote()
		}

	default:
		if n := keyToNote(msg.String(), m.Octave); n >= 0 {
			return m, m.enterNote(n)
		}
	}

	return m, nil
}

func (m *Model) move(d int) {
	switch m.Focus {
	case FocusGenerators:
		m.GenCursor = clampIndex(m.GenCursor+d, len(m.Backend.Generators()))
	case FocusParams:
		if g, ok := m.selected(); ok {
			m.ParamCursor = clampIndex(m.ParamCursor+d, len(g.Params().All()))
		}
	case FocusPattern:
		m.NoteIdx = clampIndex(m.NoteIdx+d, len(m.notes()))
	}
}

func (m *Model) adjust(d int) {
	switch m.Focus {
	case FocusGenerators:
		if g, ok := m.Backend.Generator(m.GenCursor); ok {
			if p, ok := g.Params().Lookup("volume"); ok {
				p.Nudge(d)
			}
		}
	case FocusParams:
		if g, ok := m.selected(); ok {
			params := g.Params().All()
			if m.ParamCursor < len(params) {
				params[m.ParamCursor].Nudge(d)
			}
		}
	case FocusPattern:
		m.PatternIdx = clampIndex(m.PatternIdx+d, len(m.Backend.Sequencer().Patterns()))
		m.NoteIdx, m.Row = 0, 0
	}
}

// enterNote plays n on the selected generator. In the pattern editor it is
// also written at the insert row, which then advances.
func (m *Model) enterNote(n int) tea.Cmd {
	if n > note.MaxNumber {
		return nil
	}
	if m.Focus == FocusPattern {
		if p, ok := m.pattern(); ok {
			if g, ok := m.selected(); ok {
				start := uint64(m.Row) * StepSamples
				err := m.Backend.Sequencer().AddNote(p.ID, g, note.Note{
					Number:   n,
					Velocity: note.MaxVelocity,
					PlayTime: start,
					StopTime: start + StepSamples,
				})
				if m.setErr(err, "added "+note.ToString(n)) {
					m.Row++
					m.NoteIdx = len(m.notes()) - 1
				}
			}
		}
	}
	m.Backend.NoteOn(n, note.MaxVelocity)
	return noteOffCmd(n)
}

func (m *Model) addSequence() {
	p, ok := m.pattern()
	if !ok {
		m.StatusMsg = "no pattern: press F2 to create one"
		return
	}
	g, ok := m.selected()
	if !ok {
		m.StatusMsg = "no generator selected"
		return
	}
	m.setErr(m.Backend.Sequencer().AddSequence(p.ID, g), "added sequence for "+g.Name())
}

func (m *Model) removeNote() {
	p, ok := m.pattern()
	if !ok {
		return
	}
	g, ok := m.selected()
	if !ok {
		return
	}
	if m.setErr(m.Backend.Sequencer().RemoveNote(p.ID, g, m.NoteIdx), "note removed") {
		m.NoteIdx = clampIndex(m.NoteIdx, len(m.notes()))
	}
}

// setErr reports err in the status line, or ok when err is nil.
func (m *Model) setErr(err error, ok string) bool {
	if err != nil {
		if issue := fmsg.GetIssue(err); issue != "" {
			m.StatusMsg = issue
		} else {
			m.StatusMsg = err.Error()
		}
		return false
	}
	m.StatusMsg = ok
	return true
}

func (m Model) selected() (synth.Generator, bool) {
	return m.Backend.Generator(m.Backend.Selected())
}

func (m Model) pattern() (sequencer.PatternInfo, bool) {
	patterns := m.Backend.Sequencer().Patterns()
	if m.PatternIdx < 0 || m.PatternIdx >= len(patterns) {
		return sequencer.PatternInfo{}, false
	}
	return patterns[m.PatternIdx], true
}

// notes returns the selected generator's notes in the current pattern.
func (m Model) notes() []note.Note {
	p, ok := m.pattern()
	if !ok {
		return nil
	}
	g, ok := m.selected()
	if !ok {
		return nil
	}
	for _, s := range p.Sequences {
		if s.Target == sequencer.Target(g) {
			return s.Notes
		}
	}
	return nil
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
