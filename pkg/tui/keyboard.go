package tui

// Piano-style keyboard layout:
// Lower row: Z S X D C V G B H N J M (white + black keys)
// Upper row: Q 2 W 3 E R 5 T 6 Y 7 U I 9 O 0 P
var pianoKeys = map[string]int{
	// Lower octave
	"z": 0, "s": 1, "x": 2, "d": 3, "c": 4, "v": 5,
	"g": 6, "b": 7, "h": 8, "n": 9, "j": 10, "m": 11,
	// Upper octave
	"q": 12, "2": 13, "w": 14, "3": 15, "e": 16, "r": 17,
	"5": 18, "t": 19, "6": 20, "y": 21, "7": 22, "u": 23,
	"i": 24, "9": 25, "o": 26, "0": 27, "p": 28,
}

// keyToNote converts a keyboard key to a MIDI note number, or -1. Octave 4
// puts z on middle C.
func keyToNote(key string, octave int) int {
	if n, ok := pianoKeys[key]; ok {
		return (octave+1)*12 + n
	}
	return -1
}
