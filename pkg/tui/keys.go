package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit      key.Binding
	Help      key.Binding
	Play      key.Binding
	Stop      key.Binding
	Focus     key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Select    key.Binding
	OctUp     key.Binding
	OctDown   key.Binding
	VolUp     key.Binding
	VolDown   key.Binding
	PanLeft   key.Binding
	PanRight  key.Binding
	NewPat    key.Binding
	DelPat    key.Binding
	AddSeq    key.Binding
	DelNote   key.Binding
	NoteEntry key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
		Help:     key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("F1", "help")),
		Play:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Stop:     key.NewBinding(key.WithKeys("f8"), key.WithHelp("F8", "stop")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Left:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "decrease")),
		Right:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "increase")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select generator")),
		OctUp:    key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "octave up")),
		OctDown:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "octave down")),
		VolUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "master vol up")),
		VolDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "master vol down")),
		PanLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "master pan left")),
		PanRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "master pan right")),
		NewPat:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "new pattern")),
		DelPat:   key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "delete pattern")),
		AddSeq:   key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "add sequence")),
		DelNote:  key.NewBinding(key.WithKeys("delete", "backspace"), key.WithHelp("del", "delete note")),
		// Display only; the piano keys are matched by keyToNote.
		NoteEntry: key.NewBinding(key.WithKeys("z", "q"), key.WithHelp("z..m q..p", "play notes")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Stop, k.Focus, k.Select, k.NoteEntry, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Stop, k.VolUp, k.VolDown, k.PanLeft, k.PanRight},
		{k.Focus, k.Up, k.Down, k.Left, k.Right, k.Select},
		{k.NewPat, k.DelPat, k.AddSeq, k.DelNote},
		{k.NoteEntry, k.OctUp, k.OctDown, k.Help, k.Quit},
	}
}
