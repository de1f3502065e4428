// Package midi feeds notes from a hardware MIDI input into the engine.
package midi

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Handler receives live notes. audio.Backend satisfies it.
type Handler interface {
	NoteOn(number, velocity int)
	NoteOff(number int)
}

// Input is an open MIDI input port.
type Input struct {
	drv  *rtmididrv.Driver
	port drivers.In
	stop func()
	log  *slog.Logger
}

// Ports lists the names of the available MIDI inputs.
func Ports() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.Internal), fmsg.With("open midi driver"))
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.Internal), fmsg.With("list midi inputs"))
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// Open listens on the first input whose name contains match, or the first
// input when match is empty, and forwards its notes to h.
func Open(h Handler, match string, log *slog.Logger) (*Input, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.Internal), fmsg.With("open midi driver"))
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fault.Wrap(err, ftag.With(ftag.Internal), fmsg.With("list midi inputs"))
	}

	port := pick(ins, match)
	if port == nil {
		drv.Close()
		return nil, fault.New(fmt.Sprintf("no midi input matching %q", match),
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("no midi input", "No MIDI devices found"))
	}
	if err := port.Open(); err != nil {
		drv.Close()
		return nil, fault.Wrap(err,
			ftag.With(ftag.Internal),
			fmsg.WithDesc("open midi port", fmt.Sprintf("Could not open MIDI input %s", port.String())))
	}

	name := port.String()
	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		dispatch(h, msg, log)
	}, gomidi.HandleError(func(err error) {
		log.Warn("midi listener error", "device", name, "err", err)
	}))
	if err != nil {
		port.Close()
		drv.Close()
		return nil, fault.Wrap(err, ftag.With(ftag.Internal), fmsg.With("could not setup midi event loop"))
	}

	log.Info("midi input connected", "device", name)
	return &Input{drv: drv, port: port, stop: stop, log: log}, nil
}

func (in *Input) Name() string {
	return in.port.String()
}

func (in *Input) Close() error {
	in.stop()
	err := in.port.Close()
	in.drv.Close()
	in.log.Info("midi input closed", "device", in.port.String())
	if err != nil {
		return fault.Wrap(err, fmsg.With("close midi port"))
	}
	return nil
}

func pick(ins []drivers.In, match string) drivers.In {
	if len(ins) == 0 {
		return nil
	}
	if match == "" {
		return ins[0]
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(match)) {
			return in
		}
	}
	return nil
}

// dispatch routes a message to h. Note-On with velocity 0 arrives as a
// note end. Everything else is only logged.
func dispatch(h Handler, msg gomidi.Message, log *slog.Logger) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		log.Debug("midi note on", "ch", ch, "key", key, "vel", vel)
		h.NoteOn(int(key), int(vel))
	case msg.GetNoteEnd(&ch, &key):
		log.Debug("midi note off", "ch", ch, "key", key)
		h.NoteOff(int(key))
	default:
		log.Debug("unhandled midi message", "msg", msg.String())
	}
}
