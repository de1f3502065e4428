package audio

import (
	"io"
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	wav "github.com/youpy/go-wav"
)

const bitsPerSample = 16

// ExportWAV renders seconds of the transport from the start into w as
// 16-bit stereo PCM. The transport is reset before and after.
func ExportWAV(b *Backend, w io.Writer, seconds float64) error {
	if seconds <= 0 || math.IsNaN(seconds) {
		return fault.New("export length must be positive",
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("bad export length", "The export length must be greater than zero"))
	}
	totalFrames := int(seconds * SampleRate)
	writer := wav.NewWriter(w, uint32(totalFrames), Channels, SampleRate, bitsPerSample)

	seq := b.Sequencer()
	seq.Reset()
	seq.Start()
	defer seq.Reset()

	chunk := len(b.scratch) / Channels
	if chunk == 0 {
		chunk = DefaultBufferFrames
	}
	buffer := make([]float32, chunk*Channels)
	samples := make([]wav.Sample, chunk)

	for written := 0; written < totalFrames; {
		frames := min(chunk, totalFrames-written)
		b.Process(buffer[:frames*Channels])
		for i := 0; i < frames; i++ {
			samples[i].Values[0] = toPCM16(buffer[i*2])
			samples[i].Values[1] = toPCM16(buffer[i*2+1])
		}
		if err := writer.WriteSamples(samples[:frames]); err != nil {
			return fault.Wrap(err,
				ftag.With(ftag.Internal),
				fmsg.WithDesc("write wav samples", "Could not write the audio file"))
		}
		written += frames
	}
	b.log.Info("export finished", "frames", totalFrames, "seconds", seconds)
	return nil
}

func toPCM16(v float32) int {
	s := float64(v)
	if s > 1.0 {
		s = 1.0
	}
	if s < -1.0 {
		s = -1.0
	}
	return int(s * 32767)
}
