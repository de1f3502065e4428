// Package note implements the note event and score entry shared by live input,
// generators and the sequencer.
package note

import (
	"math"
	"strconv"
)

const (
	MinNumber   = 0
	MaxNumber   = 127
	MaxVelocity = 127
)

// Note is a note event or a scheduled score entry. Times are in samples.
type Note struct {
	Number   int     // MIDI note number 0-127
	Velocity int     // 0-127, ignored on Note-Off
	Pan      float64 // -1 left to +1 right

	// Used by the sequencer
	PlayTime uint64
	StopTime uint64
	Playing  bool
}

// Valid reports whether the note number and velocity are in MIDI range.
func (n Note) Valid() bool {
	return n.Number >= MinNumber && n.Number <= MaxNumber &&
		n.Velocity >= 0 && n.Velocity <= MaxVelocity
}

// ValidScheduled reports whether n can be placed in a note sequence.
func (n Note) ValidScheduled() bool {
	return n.Valid() && n.StopTime > n.PlayTime
}

// Frequency converts a MIDI note number to Hz (A4 = note 69 = 440 Hz).
func Frequency(number int) float64 {
	return 440.0 * math.Pow(2.0, float64(number-69)/12.0)
}

var names = []string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// ToString converts a note number to a tracker style name, C-4 for 60.
func ToString(number int) string {
	if number < MinNumber || number > MaxNumber {
		return "---"
	}
	octave := number/12 - 1
	return names[number%12] + strconv.Itoa(octave)
}

// FromString converts a note name to a note number, -1 if s is not a note.
func FromString(s string) int {
	if len(s) < 3 {
		return -1
	}
	idx := -1
	for i, name := range names {
		if name == s[:2] {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1
	}
	octave, err := strconv.Atoi(s[2:])
	if err != nil {
		return -1
	}
	n := (octave+1)*12 + idx
	if n < MinNumber || n > MaxNumber {
		return -1
	}
	return n
}
