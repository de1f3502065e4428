// Package repl is a line-oriented control surface for headless sessions.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/chzyer/readline"

	"github.com/evilstudio/evilstudio/pkg/audio"
	"github.com/evilstudio/evilstudio/pkg/note"
	"github.com/evilstudio/evilstudio/pkg/sequencer"
	"github.com/evilstudio/evilstudio/pkg/synth"
)

// Shell evaluates commands against a backend.
type Shell struct {
	backend *audio.Backend
	log     *slog.Logger
}

func New(b *audio.Backend, log *slog.Logger) *Shell {
	return &Shell{backend: b, log: log}
}

type command struct {
	name  string
	usage string
	run   func(s *Shell, args []string) (string, error)
	arity int // 0 accepts any count, -n means at least n
}

var commands []command

func init() {
	commands = []command{
		{"help", "list commands", helpCommand, 0},
		{"play", "start the transport", playCommand, 0},
		{"pause", "pause the transport", pauseCommand, 0},
		{"stop", "stop and rewind", stopCommand, 0},
		{"status", "show transport and master state", statusCommand, 0},
		{"gens", "list generators", gensCommand, 0},
		{"select", "select <index>: route live notes to a generator", selectCommand, 1},
		{"params", "list parameters of the selected generator", paramsCommand, 0},
		{"set", "set <param> <value>: set a parameter of the selected generator", setCommand, 2},
		{"vol", "vol <0-1>: master volume", volCommand, 1},
		{"pan", "pan <-1-1>: master pan", panCommand, 1},
		{"on", "on <note> [velocity]: start a live note", onCommand, -1},
		{"off", "off <note>: release a live note", offCommand, 1},
		{"patterns", "list patterns", patternsCommand, 0},
		{"pattern-new", "pattern-new [name]: create a pattern", patternNewCommand, 0},
		{"pattern-rm", "pattern-rm <id>: remove a pattern", patternRmCommand, 1},
		{"seq-add", "seq-add <pattern>: add a sequence for the selected generator", seqAddCommand, 1},
		{"note-add", "note-add <pattern> <note> <start s> <stop s> [velocity]", noteAddCommand, -4},
		{"note-rm", "note-rm <pattern> <index>", noteRmCommand, 2},
	}
}

// Eval runs one command line and returns its output.
func (s *Shell) Eval(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := fields[0], fields[1:]
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(args) < arity {
				return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(args))
			}
		} else if cmd.arity > 0 && len(args) != cmd.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(args))
		}
		result, err := cmd.run(s, args)
		if err != nil {
			return result, fault.Wrap(err, fmsg.With(cmd.name))
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

// Run reads commands from the terminal until EOF, interrupt or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, cmd := range commands {
		items[i] = readline.PcItem(cmd.name)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "evilstudio> ",
		AutoComplete: readline.NewPrefixCompleter(items...),
	})
	if err != nil {
		return fault.Wrap(err, fmsg.With("open terminal"))
	}
	defer rl.Close()

	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()

	for {
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		result, err := s.Eval(line)
		if err != nil {
			s.log.Debug("command failed", "line", line, "err", err)
			fmt.Fprintln(rl.Stderr(), Issue(err))
			continue
		}
		if result != "" {
			fmt.Fprintln(rl.Stdout(), result)
		}
	}
}

// Issue returns the user-facing text of err.
func Issue(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}

func helpCommand(s *Shell, args []string) (string, error) {
	var b strings.Builder
	for _, cmd := range commands {
		fmt.Fprintf(&b, "%-12s %s\n", cmd.name, cmd.usage)
	}
	fmt.Fprintf(&b, "%-12s %s", "quit", "leave the shell")
	return b.String(), nil
}

func playCommand(s *Shell, args []string) (string, error) {
	s.backend.Sequencer().Start()
	return "", nil
}

func pauseCommand(s *Shell, args []string) (string, error) {
	s.backend.Sequencer().Pause()
	return "", nil
}

func stopCommand(s *Shell, args []string) (string, error) {
	s.backend.Sequencer().Reset()
	return "", nil
}

func statusCommand(s *Shell, args []string) (string, error) {
	seq := s.backend.Sequencer()
	return fmt.Sprintf("playing=%v sample=%d slice=%d bucket=%d processed=%d volume=%.2f pan=%.2f selected=%d",
		seq.IsPlaying(), seq.CurrentSample(), seq.CurrentSlice(), seq.CurrentBucket(),
		seq.CurrentProcessSample(), s.backend.MasterVolume(), s.backend.MasterPan(),
		s.backend.Selected()), nil
}

func gensCommand(s *Shell, args []string) (string, error) {
	var lines []string
	for _, info := range s.backend.GeneratorInfo() {
		marker := " "
		if info.Selected {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s%d %s (%s) volume=%.2f pan=%.2f voices=%d",
			marker, info.Index, info.Name, info.Kind, info.Volume, info.Pan, info.Voices))
	}
	return strings.Join(lines, "\n"), nil
}

func selectCommand(s *Shell, args []string) (string, error) {
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("argument error: expected a number")
	}
	if !s.backend.SelectGenerator(i) {
		return "", fmt.Errorf("no generator %d", i)
	}
	return "", nil
}

func (s *Shell) selected() (synth.Generator, error) {
	g, ok := s.backend.Generator(s.backend.Selected())
	if !ok {
		return nil, errors.New("no generator selected")
	}
	return g, nil
}

func paramsCommand(s *Shell, args []string) (string, error) {
	g, err := s.selected()
	if err != nil {
		return "", err
	}
	var lines []string
	for _, p := range g.Params().All() {
		lines = append(lines, fmt.Sprintf("%-12s %s [%v - %v]", p.Name, p, p.Min, p.Max))
	}
	return strings.Join(lines, "\n"), nil
}

func setCommand(s *Shell, args []string) (string, error) {
	g, err := s.selected()
	if err != nil {
		return "", err
	}
	p, ok := g.Params().Lookup(args[0])
	if !ok {
		return "", fmt.Errorf("unknown param: %s", args[0])
	}
	v, err := parseParamValue(p, args[1])
	if err != nil {
		return "", err
	}
	if err := p.Set(v); err != nil {
		return "", err
	}
	return p.String(), nil
}

// parseParamValue accepts a number, or a label for enumerated parameters.
func parseParamValue(p *synth.Param, arg string) (float64, error) {
	for i, label := range p.Labels {
		if strings.EqualFold(label, arg) {
			return float64(i), nil
		}
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("argument error: expected a number")
	}
	return v, nil
}

func volCommand(s *Shell, args []string) (string, error) {
	v, err := parseFloat(args[0])
	if err != nil {
		return "", err
	}
	s.backend.SetMasterVolume(v)
	return "", nil
}

func panCommand(s *Shell, args []string) (string, error) {
	v, err := parseFloat(args[0])
	if err != nil {
		return "", err
	}
	s.backend.SetMasterPan(v)
	return "", nil
}

func onCommand(s *Shell, args []string) (string, error) {
	n, err := parseNote(args[0])
	if err != nil {
		return "", err
	}
	vel := note.MaxVelocity
	if len(args) > 1 {
		if vel, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("argument error: expected a velocity")
		}
	}
	if _, err := s.selected(); err != nil {
		return "", err
	}
	s.backend.NoteOn(n, vel)
	return "", nil
}

func offCommand(s *Shell, args []string) (string, error) {
	n, err := parseNote(args[0])
	if err != nil {
		return "", err
	}
	s.backend.NoteOff(n)
	return "", nil
}

func patternsCommand(s *Shell, args []string) (string, error) {
	gens := s.backend.Generators()
	var lines []string
	for _, p := range s.backend.Sequencer().Patterns() {
		lines = append(lines, fmt.Sprintf("%d %s", p.ID, p.Name))
		for _, seq := range p.Sequences {
			lines = append(lines, fmt.Sprintf("  %s:", targetName(gens, seq.Target)))
			for i, n := range seq.Notes {
				lines = append(lines, fmt.Sprintf("    %d %s vel=%d %d-%d", i, note.ToString(n.Number),
					n.Velocity, n.PlayTime, n.StopTime))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func targetName(gens []synth.Generator, t sequencer.Target) string {
	for _, g := range gens {
		if sequencer.Target(g) == t {
			return g.Name()
		}
	}
	return "?"
}

func patternNewCommand(s *Shell, args []string) (string, error) {
	id := s.backend.Sequencer().NewPattern(strings.Join(args, " "))
	return strconv.Itoa(id), nil
}

func patternRmCommand(s *Shell, args []string) (string, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("argument error: expected a pattern id")
	}
	return "", s.backend.Sequencer().RemovePattern(id)
}

func seqAddCommand(s *Shell, args []string) (string, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("argument error: expected a pattern id")
	}
	g, err := s.selected()
	if err != nil {
		return "", err
	}
	return "", s.backend.Sequencer().AddSequence(id, g)
}

func noteAddCommand(s *Shell, args []string) (string, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("argument error: expected a pattern id")
	}
	number, err := parseNote(args[1])
	if err != nil {
		return "", err
	}
	start, err := parseFloat(args[2])
	if err != nil {
		return "", err
	}
	stop, err := parseFloat(args[3])
	if err != nil {
		return "", err
	}
	vel := note.MaxVelocity
	if len(args) > 4 {
		if vel, err = strconv.Atoi(args[4]); err != nil {
			return "", fmt.Errorf("argument error: expected a velocity")
		}
	}
	if start < 0 || stop < 0 {
		return "", fmt.Errorf("argument error: times must not be negative")
	}
	g, err := s.selected()
	if err != nil {
		return "", err
	}
	return "", s.backend.Sequencer().AddNote(id, g, note.Note{
		Number:   number,
		Velocity: vel,
		PlayTime: uint64(start * audio.SampleRate),
		StopTime: uint64(stop * audio.SampleRate),
	})
}

func noteRmCommand(s *Shell, args []string) (string, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("argument error: expected a pattern id")
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("argument error: expected a note index")
	}
	g, err := s.selected()
	if err != nil {
		return "", err
	}
	return "", s.backend.Sequencer().RemoveNote(id, g, index)
}

// parseNote accepts a note number or a name like C-4 or F#3.
func parseNote(arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return n, nil
	}
	if n := note.FromString(strings.ToUpper(arg)); n >= 0 {
		return n, nil
	}
	return 0, fmt.Errorf("argument error: invalid note %q", arg)
}

func parseFloat(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("argument error: expected a number")
	}
	return v, nil
}
