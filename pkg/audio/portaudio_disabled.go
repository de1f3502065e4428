//go:build !portaudio

package audio

import (
	"log/slog"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// NewPortAudioOutput fails in builds without the portaudio tag.
func NewPortAudioOutput(b *Backend, frames int, log *slog.Logger) (Output, error) {
	return nil, fault.New("portaudio support not compiled in",
		ftag.With(ftag.InvalidArgument),
		fmsg.WithDesc("portaudio disabled", "Rebuild with -tags portaudio to use this device"))
}
