package main

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"

	"github.com/evilstudio/evilstudio/pkg/audio"
	"github.com/evilstudio/evilstudio/pkg/repl"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Device:     DeviceOto,
		Buffer:     audio.DefaultBufferFrames,
		Volume:     0.5,
		Generators: 4,
		Seconds:    8,
		LogFile:    "evilstudio.log",
	}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("level = %v", cfg.LogLevel())
	}
}

func TestParseFlagsInvalid(t *testing.T) {
	tests := [][]string{
		{"-device", "alsa"},
		{"-buffer", "32"},
		{"-buffer", "10000"},
		{"-volume", "1.5"},
		{"-pan", "-2"},
		{"-generators", "0"},
		{"-generators", "17"},
		{"-render", "out.wav", "-seconds", "0"},
	}
	for _, args := range tests {
		_, err := parseFlags(args, io.Discard)
		if err == nil {
			t.Errorf("%v: expected error", args)
			continue
		}
		if ftag.Get(err) != ftag.InvalidArgument {
			t.Errorf("%v: tag = %v", args, ftag.Get(err))
		}
	}

	if _, err := parseFlags([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h: err = %v", err)
	}
}

func TestNewBackendDemo(t *testing.T) {
	cfg, err := parseFlags([]string{"-demo", "-generators", "2", "-volume", "0.7", "-debug"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Error("-debug did not lower the level")
	}
	b, err := newBackend(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Generators()) != 2 || b.Selected() != 0 || b.MasterVolume() != 0.7 {
		t.Fatalf("backend: %+v", b.GeneratorInfo())
	}

	patterns := b.Sequencer().Patterns()
	if len(patterns) != 1 || len(patterns[0].Sequences) != 2 {
		t.Fatalf("patterns = %+v", patterns)
	}
	if got := len(patterns[0].Sequences[0].Notes); got != 8 {
		t.Errorf("lead notes = %d, want 8", got)
	}
	if bass := patterns[0].Sequences[1].Notes; len(bass) != 2 || bass[0].Number != 36 {
		t.Errorf("bass notes = %+v", bass)
	}

	if err := audio.ExportWAV(b, io.Discard, 0.1); err != nil {
		t.Fatal(err)
	}
}

func TestNewBackendSingleGeneratorDemo(t *testing.T) {
	cfg := Config{Device: DeviceNone, Buffer: 256, Volume: 0.5, Generators: 1, Demo: true}
	b, err := newBackend(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(b.Sequencer().Patterns()[0].Sequences); got != 1 {
		t.Errorf("sequences = %d, want 1", got)
	}
}

func TestRenderCreateError(t *testing.T) {
	b, err := newBackend(Config{Buffer: 256, Volume: 0.5, Generators: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	err = render(b, filepath.Join(t.TempDir(), "missing", "out.wav"), 0.1)
	if err == nil {
		t.Fatal("expected error for a missing directory")
	}
	if got := repl.Issue(err); got != "Could not create the output file" {
		t.Errorf("issue = %q", got)
	}
}

func TestRenderWritesFile(t *testing.T) {
	b, err := newBackend(Config{Buffer: 256, Volume: 0.5, Generators: 2, Demo: true}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "demo.wav")
	if err := render(b, path, 0.1); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() <= 44 {
		t.Errorf("file size = %d", info.Size())
	}
}
