package dsp

// Pan applies the linear panning law to a stereo pair. pan is -1 (left)
// to +1 (right); at 0 both sides are halved.
func Pan(left, right, pan float64) (float64, float64) {
	return left * (1.0 - pan) * 0.5, right * (1.0 + pan) * 0.5
}

// PanBuffer pans every frame of an interleaved stereo buffer in place.
func PanBuffer(buf []float32, pan float64) {
	lg := float32((1.0 - pan) * 0.5)
	rg := float32((1.0 + pan) * 0.5)
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] *= lg
		buf[i+1] *= rg
	}
}
