package note

import (
	"math"
	"testing"
)

func TestFrequency(t *testing.T) {
	tests := []struct {
		number int
		want   float64
	}{
		{69, 440},
		{57, 220},
		{81, 880},
		{60, 261.6255653},
	}
	for _, tst := range tests {
		if got := Frequency(tst.number); math.Abs(got-tst.want) > 1e-6 {
			t.Errorf("Frequency(%d) = %v, want %v", tst.number, got, tst.want)
		}
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		number int
		name   string
	}{
		{60, "C-4"},
		{61, "C#4"},
		{69, "A-4"},
		{0, "C--1"},
		{127, "G-9"},
	}
	for _, tst := range tests {
		if got := ToString(tst.number); got != tst.name {
			t.Errorf("ToString(%d) = %q, want %q", tst.number, got, tst.name)
		}
		if got := FromString(tst.name); got != tst.number {
			t.Errorf("FromString(%q) = %d, want %d", tst.name, got, tst.number)
		}
	}
	if got := ToString(128); got != "---" {
		t.Errorf("ToString(128) = %q", got)
	}
	for _, s := range []string{"", "H-4", "C-x", "G#9"} {
		if got := FromString(s); got != -1 {
			t.Errorf("FromString(%q) = %d, want -1", s, got)
		}
	}
}

func TestValid(t *testing.T) {
	if !(Note{Number: 60, Velocity: 127}).Valid() {
		t.Error("expected valid note")
	}
	if (Note{Number: 128}).Valid() || (Note{Number: 60, Velocity: -1}).Valid() {
		t.Error("expected out of range note to be invalid")
	}
	if (Note{Number: 60, PlayTime: 10, StopTime: 10}).ValidScheduled() {
		t.Error("expected empty span to be invalid")
	}
	if !(Note{Number: 60, PlayTime: 0, StopTime: 22050}).ValidScheduled() {
		t.Error("expected scheduled note to be valid")
	}
}
