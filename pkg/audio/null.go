package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// NullOutput runs the backend in real time without a device, for machines
// without audio hardware.
type NullOutput struct {
	backend *Backend
	buf     []float32
	period  time.Duration
	log     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewNullOutput(b *Backend, frames int, log *slog.Logger) *NullOutput {
	return &NullOutput{
		backend: b,
		buf:     make([]float32, frames*Channels),
		period:  time.Duration(frames) * time.Second / SampleRate,
		log:     log,
	}
}

func (o *NullOutput) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		t := time.NewTicker(o.period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				o.backend.Process(o.buf)
			}
		}
	}()
	o.log.Info("audio started", "device", "none", "period", o.period)
	return nil
}

func (o *NullOutput) Close() error {
	if o.cancel != nil {
		o.cancel()
		o.wg.Wait()
	}
	return nil
}
