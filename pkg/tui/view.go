package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/evilstudio/evilstudio/pkg/audio"
	"github.com/evilstudio/evilstudio/pkg/note"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	playStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("6")).Foreground(lipgloss.Color("0"))
	selStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	focusedPanelStyle = panelStyle.BorderForeground(lipgloss.Color("14"))
)

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel(FocusGenerators, "Generators", m.generatorsView()),
		m.panel(FocusParams, "Parameters", m.paramsView()),
		m.panel(FocusPattern, "Pattern", m.patternView()),
	))
	b.WriteString("\n")

	if m.StatusMsg != "" {
		b.WriteString(statusStyle.Render(m.StatusMsg))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) panel(f Focus, title, body string) string {
	style := panelStyle
	if m.Focus == f {
		style = focusedPanelStyle
	}
	return style.Render(titleStyle.Render(title) + "\n" + body)
}

func (m Model) headerView() string {
	seq := m.Backend.Sequencer()

	state := dimStyle.Render("STOPPED")
	if seq.IsPlaying() {
		state = playStyle.Render("PLAYING")
	} else if seq.CurrentSample() > 0 {
		state = "PAUSED"
	}

	info := fmt.Sprintf(" │ %s │ Smp:%d Slice:%d Bucket:%d │ Vol:%.2f Pan:%+.1f │ Oct:%d │ %s",
		FormatTime(seq.CurrentSample()), seq.CurrentSample(), seq.CurrentSlice(), seq.CurrentBucket(),
		m.Backend.MasterVolume(), m.Backend.MasterPan(), m.Octave, state)

	return titleStyle.Render("EVILSTUDIO") + info
}

// FormatTime renders a sample position as mm:ss:mmm.
func FormatTime(samples uint64) string {
	ms := samples * 1000 / audio.SampleRate
	return fmt.Sprintf("%02d:%02d:%03d", ms/60000, ms/1000%60, ms%1000)
}

func (m Model) generatorsView() string {
	infos := m.Backend.GeneratorInfo()
	if len(infos) == 0 {
		return dimStyle.Render("no generators")
	}
	lines := make([]string, len(infos))
	for i, info := range infos {
		marker := " "
		if info.Selected {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-10s vol:%.2f v:%-3d", marker, info.Name, info.Volume, info.Voices)
		if info.Dropped > 0 {
			line += fmt.Sprintf(" drop:%d", info.Dropped)
		}
		switch {
		case i == m.GenCursor && m.Focus == FocusGenerators:
			line = cursorStyle.Render(line)
		case info.Selected:
			line = selStyle.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func (m Model) paramsView() string {
	g, ok := m.selected()
	if !ok {
		return dimStyle.Render("select a generator")
	}
	params := g.Params().All()
	lines := []string{dimStyle.Render(fmt.Sprintf("%s (%s)", g.Name(), g.Kind()))}
	for i, p := range params {
		line := fmt.Sprintf("%-12s %10s", p.Name, p.String())
		if i == m.ParamCursor && m.Focus == FocusParams {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) patternView() string {
	p, ok := m.pattern()
	if !ok {
		return dimStyle.Render("no patterns (F2)")
	}
	lines := []string{
		fmt.Sprintf("%s [%d/%d] seqs:%d", p.Name, m.PatternIdx+1,
			len(m.Backend.Sequencer().Patterns()), len(p.Sequences)),
		dimStyle.Render(fmt.Sprintf("insert at row %d (%s)", m.Row, FormatTime(uint64(m.Row)*StepSamples))),
	}

	notes := m.notes()
	if notes == nil {
		return strings.Join(append(lines, dimStyle.Render("no sequence for generator (F4)")), "\n")
	}

	visible := max(m.Height-12, 4)
	first := max(0, min(m.NoteIdx-visible/2, len(notes)-visible))
	for i := first; i < len(notes) && i < first+visible; i++ {
		n := notes[i]
		line := fmt.Sprintf("%s v%-3d %s-%s", note.ToString(n.Number), n.Velocity,
			FormatTime(n.PlayTime), FormatTime(n.StopTime))
		switch {
		case i == m.NoteIdx && m.Focus == FocusPattern:
			line = cursorStyle.Render(line)
		case n.Playing:
			line = playStyle.Render(line)
		default:
			line = noteStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
