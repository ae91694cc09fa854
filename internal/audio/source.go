package audio

import (
	"context"
	"errors"
)

// ErrDevice reports that the capture device is missing or access was denied.
var ErrDevice = errors.New("audio device unavailable")

type Frame []float32

// Source delivers frames from a capture device.
type Source interface {
	SampleRate() int
	Start(ctx context.Context, onFrame func(Frame)) error
	Close() error
}
