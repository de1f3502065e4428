package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/evilstudio/evilstudio/pkg/audio"
)

const (
	DeviceOto       = "oto"
	DevicePortAudio = "portaudio"
	DeviceNone      = "none"

	MidiOff = "off"
)

// Config holds the command line settings.
type Config struct {
	Device     string
	Buffer     int
	Midi       string
	Volume     float64
	Pan        float64
	Generators int
	Repl       bool
	Render     string
	Seconds    float64
	Demo       bool
	LogFile    string
	Debug      bool
}

func parseFlags(args []string, output io.Writer) (Config, error) {
	var c Config
	fs := flag.NewFlagSet("evilstudio", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&c.Device, "device", DeviceOto, "Audio output: oto, portaudio or none")
	fs.IntVar(&c.Buffer, "buffer", audio.DefaultBufferFrames, "Frames per audio callback (64-8192)")
	fs.StringVar(&c.Midi, "midi", "", "MIDI input name to match, empty for the first port, off to disable")
	fs.Float64Var(&c.Volume, "volume", 0.5, "Master volume (0-1)")
	fs.Float64Var(&c.Pan, "pan", 0, "Master pan (-1 to 1)")
	fs.IntVar(&c.Generators, "generators", 4, "Number of waveform generators (1-16)")
	fs.BoolVar(&c.Repl, "repl", false, "Use the command shell instead of the TUI")
	fs.StringVar(&c.Render, "render", "", "Render the patterns to a WAV file and exit")
	fs.Float64Var(&c.Seconds, "seconds", 8, "Length of the rendered file in seconds")
	fs.BoolVar(&c.Demo, "demo", false, "Start with a demo pattern")
	fs.StringVar(&c.LogFile, "log", "evilstudio.log", "Log file used while the TUI is running")
	fs.BoolVar(&c.Debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	switch c.Device {
	case DeviceOto, DevicePortAudio, DeviceNone:
	default:
		return invalid("device", fmt.Sprintf("unknown device %q, want oto, portaudio or none", c.Device))
	}
	if c.Buffer < 64 || c.Buffer > 8192 {
		return invalid("buffer", fmt.Sprintf("buffer of %d frames is outside 64-8192", c.Buffer))
	}
	if c.Volume < 0 || c.Volume > 1 {
		return invalid("volume", "volume must be between 0 and 1")
	}
	if c.Pan < -1 || c.Pan > 1 {
		return invalid("pan", "pan must be between -1 and 1")
	}
	if c.Generators < 1 || c.Generators > 16 {
		return invalid("generators", "generators must be between 1 and 16")
	}
	if c.Render != "" && c.Seconds <= 0 {
		return invalid("seconds", "render length must be positive")
	}
	return nil
}

func invalid(flag, desc string) error {
	return fault.New("invalid flag -"+flag, ftag.With(ftag.InvalidArgument), fmsg.WithDesc(flag, desc))
}

// LogLevel returns the slog level selected by -debug.
func (c Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
