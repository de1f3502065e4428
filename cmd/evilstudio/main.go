package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/evilstudio/evilstudio/pkg/audio"
	"github.com/evilstudio/evilstudio/pkg/dsp"
	"github.com/evilstudio/evilstudio/pkg/midi"
	"github.com/evilstudio/evilstudio/pkg/note"
	"github.com/evilstudio/evilstudio/pkg/repl"
	"github.com/evilstudio/evilstudio/pkg/sequencer"
	"github.com/evilstudio/evilstudio/pkg/synth"
	"github.com/evilstudio/evilstudio/pkg/tui"
)

const statsInterval = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := parseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", repl.Issue(err))
		return 2
	}

	useTUI := cfg.Render == "" && !cfg.Repl && term.IsTerminal(int(os.Stdout.Fd()))

	var logOut io.Writer = os.Stderr
	if useTUI {
		f, err := tea.LogToFile(cfg.LogFile, "evilstudio")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	b, err := newBackend(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", repl.Issue(err))
		return 1
	}

	if cfg.Render != "" {
		if err := render(b, cfg.Render, cfg.Seconds); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering: %s\n", repl.Issue(err))
			return 1
		}
		fmt.Printf("Rendered %.1fs to %s\n", cfg.Seconds, cfg.Render)
		return 0
	}

	out, err := openOutput(cfg, b, log)
	if err == nil {
		err = out.Start()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %s\n", repl.Issue(err))
		return 1
	}
	defer out.Close()

	if cfg.Midi != MidiOff {
		in, err := midi.Open(b, cfg.Midi, log)
		if err != nil {
			ports, _ := midi.Ports()
			log.Warn("midi input disabled", "err", err, "ports", ports)
		} else {
			defer in.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if useTUI {
			p := tea.NewProgram(tui.NewModel(b), tea.WithContext(ctx))
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		}
		return repl.New(b, log).Run(ctx)
	})
	g.Go(func() error {
		logStats(ctx, b, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	b.Sequencer().Reset()
	log.Info("shutdown")
	return 0
}

// newBackend creates the backend with cfg.Generators waveform generators,
// the first one selected.
func newBackend(cfg Config, log *slog.Logger) (*audio.Backend, error) {
	b := audio.New(audio.WithLogger(log), audio.WithBufferFrames(cfg.Buffer))
	for i := 1; i <= cfg.Generators; i++ {
		b.AddGenerator(synth.NewWaveformGenerator(fmt.Sprintf("gen%d", i)))
	}
	b.SelectGenerator(0)
	b.SetMasterVolume(cfg.Volume)
	b.SetMasterPan(cfg.Pan)
	if cfg.Demo {
		if err := seedDemo(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func openOutput(cfg Config, b *audio.Backend, log *slog.Logger) (audio.Output, error) {
	switch cfg.Device {
	case DevicePortAudio:
		return audio.NewPortAudioOutput(b, cfg.Buffer, log)
	case DeviceNone:
		return audio.NewNullOutput(b, cfg.Buffer, log), nil
	default:
		out, err := audio.NewRealtimeOutput(b, cfg.Buffer, log)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func render(b *audio.Backend, path string, seconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("create wav", "Could not create the output file"))
	}
	if err := audio.ExportWAV(b, f, seconds); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("close wav", "Could not finish writing the output file"))
	}
	return nil
}

// seedDemo writes a two bar arpeggio on the first generator and a bass
// line on the second.
func seedDemo(b *audio.Backend) error {
	const step = sequencer.SliceSize / 4
	seq := b.Sequencer()
	id := seq.NewPattern("Demo")
	gens := b.Generators()

	lead := gens[0]
	for name, v := range map[string]float64{"attack": 0.01, "decay": 0.1, "sustain": 0.5, "release": 0.2} {
		if err := lead.Params().Set(name, v); err != nil {
			return err
		}
	}
	if err := seq.AddSequence(id, lead); err != nil {
		return err
	}
	// The sequence starts with the default C-4 on the first step.
	arp := []int{64, 67, 72, 67, 64, 60, 64}
	for i, n := range arp {
		start := uint64(i+1) * step
		if err := seq.AddNote(id, lead, note.Note{Number: n, Velocity: 100, PlayTime: start, StopTime: start + step}); err != nil {
			return err
		}
	}

	if len(gens) < 2 {
		return nil
	}
	bass := gens[1]
	for name, v := range map[string]float64{
		"waveform": float64(dsp.Saw), "attack": 0.01, "release": 0.1, "unison": 3, "detune": 12, "volume": 0.3,
	} {
		if err := bass.Params().Set(name, v); err != nil {
			return err
		}
	}
	if err := seq.AddSequence(id, bass); err != nil {
		return err
	}
	if err := seq.RemoveNote(id, bass, 0); err != nil {
		return err
	}
	for i, n := range []int{36, 43} {
		start := uint64(i) * 4 * step
		if err := seq.AddNote(id, bass, note.Note{Number: n, Velocity: 110, PlayTime: start, StopTime: start + 4*step - step/2}); err != nil {
			return err
		}
	}
	return nil
}

// logStats reports voice counts and dropped events until ctx is done.
func logStats(ctx context.Context, b *audio.Backend, log *slog.Logger) {
	t := time.NewTicker(statsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, info := range b.GeneratorInfo() {
				if info.Dropped > 0 {
					log.Warn("note events dropped", "generator", info.Name, "dropped", info.Dropped)
				}
				log.Debug("generator", "name", info.Name, "voices", info.Voices)
			}
		}
	}
}
