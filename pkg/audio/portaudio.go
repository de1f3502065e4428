//go:build portaudio

package audio

import (
	"log/slog"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gordonklaus/portaudio"
)

// PortAudioOutput plays the backend through the default portaudio stream.
type PortAudioOutput struct {
	stream *portaudio.Stream
	log    *slog.Logger
}

func NewPortAudioOutput(b *Backend, frames int, log *slog.Logger) (Output, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.Internal),
			fmsg.WithDesc("portaudio init", "Could not initialise portaudio"))
	}
	stream, err := portaudio.OpenDefaultStream(0, Channels, SampleRate, frames, b.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fault.Wrap(err,
			ftag.With(ftag.Internal),
			fmsg.WithDesc("open portaudio stream", "Could not open the audio device"))
	}
	return &PortAudioOutput{stream: stream, log: log}, nil
}

func (p *PortAudioOutput) Start() error {
	if err := p.stream.Start(); err != nil {
		return fault.Wrap(err, fmsg.With("start portaudio stream"))
	}
	p.log.Info("audio started", "device", "portaudio", "rate", SampleRate)
	return nil
}

func (p *PortAudioOutput) Close() error {
	defer portaudio.Terminate()
	if err := p.stream.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("close portaudio stream"))
	}
	return nil
}
