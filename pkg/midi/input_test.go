package midi

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type call struct {
	on       bool
	number   int
	velocity int
}

type handler struct {
	calls []call
}

func (h *handler) NoteOn(number, velocity int) { h.calls = append(h.calls, call{true, number, velocity}) }
func (h *handler) NoteOff(number int)          { h.calls = append(h.calls, call{false, number, 0}) }

func TestDispatch(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &handler{}

	msgs := []gomidi.Message{
		gomidi.NoteOn(0, 60, 100),
		gomidi.ControlChange(0, 7, 64),
		gomidi.NoteOn(3, 64, 0),
		gomidi.NoteOff(0, 60),
	}
	for _, msg := range msgs {
		dispatch(h, msg, log)
	}

	want := []call{
		{true, 60, 100},
		{false, 64, 0},
		{false, 60, 0},
	}
	if !reflect.DeepEqual(h.calls, want) {
		t.Errorf("calls = %v, want %v", h.calls, want)
	}
}
