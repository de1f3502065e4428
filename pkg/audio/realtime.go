package audio

import (
	"encoding/binary"
	"log/slog"
	"math"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/ebitengine/oto/v3"
)

// Output is a playback device pulling audio from a Backend.
type Output interface {
	Start() error
	Close() error
}

const bytesPerSample = 4

// RealtimeOutput plays the backend through oto.
type RealtimeOutput struct {
	ctx    *oto.Context
	player *oto.Player
	log    *slog.Logger
}

// NewRealtimeOutput opens the default device with a buffer of frames frames.
func NewRealtimeOutput(b *Backend, frames int, log *slog.Logger) (*RealtimeOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(frames) * time.Second / SampleRate,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.Internal),
			fmsg.WithDesc("open oto context", "Could not open the audio device"))
	}
	<-ready

	rt := &RealtimeOutput{ctx: ctx, log: log}
	rt.player = ctx.NewPlayer(&stream{
		backend: b,
		samples: make([]float32, frames*Channels),
	})
	rt.player.SetBufferSize(frames * Channels * bytesPerSample)
	return rt, nil
}

func (rt *RealtimeOutput) Start() error {
	rt.player.Play()
	rt.log.Info("audio started", "device", "oto", "rate", SampleRate)
	return nil
}

// Close stops the audio output
func (rt *RealtimeOutput) Close() error {
	if err := rt.player.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("close oto player"))
	}
	return nil
}

// stream implements io.Reader for oto
type stream struct {
	backend *Backend
	samples []float32
}

func (s *stream) Read(buf []byte) (int, error) {
	frames := len(buf) / (bytesPerSample * Channels)
	n := frames * Channels
	if n > len(s.samples) {
		s.samples = make([]float32, n)
	}
	samples := s.samples[:n]

	s.backend.Process(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(buf[i*bytesPerSample:], math.Float32bits(v))
	}
	// Partial frames are silence.
	clear(buf[n*bytesPerSample:])
	return len(buf), nil
}
