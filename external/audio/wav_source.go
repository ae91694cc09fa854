package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/foxseedlab/koetsuki/internal/audio"
	"github.com/go-audio/wav"
)

// WAVSource replays the first channel of a PCM WAV file at real-time pace.
type WAVSource struct {
	path            string
	sampleRate      int
	framesPerBuffer int
	samples         []float32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWAVSource(path string, framesPerBuffer int) (*WAVSource, error) {
	if framesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", framesPerBuffer)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}
	defer func() {
		_ = f.Close()
	}()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid wav file", audio.ErrDevice, path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", audio.ErrDevice, path, err)
	}
	channels := int(d.NumChans)
	if channels <= 0 || d.SampleRate == 0 || d.BitDepth == 0 {
		return nil, fmt.Errorf("%w: %s has an invalid format", audio.ErrDevice, path)
	}

	scale := float32(int64(1) << (d.BitDepth - 1))
	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float32(buf.Data[i])/scale)
	}
	slog.Info("wav source loaded", "path", path, "sample_rate", d.SampleRate, "channels", channels, "bit_depth", d.BitDepth, "samples", len(samples))

	return &WAVSource{
		path:            path,
		sampleRate:      int(d.SampleRate),
		framesPerBuffer: framesPerBuffer,
		samples:         samples,
	}, nil
}

func (s *WAVSource) SampleRate() int {
	return s.sampleRate
}

func (s *WAVSource) Start(ctx context.Context, onFrame func(audio.Frame)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.play(ctx, onFrame, s.done)
	return nil
}

func (s *WAVSource) play(ctx context.Context, onFrame func(audio.Frame), done chan struct{}) {
	defer close(done)
	period := time.Duration(s.framesPerBuffer) * time.Second / time.Duration(s.sampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	frame := make(audio.Frame, s.framesPerBuffer)
	for pos := 0; pos < len(s.samples); {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n := copy(frame, s.samples[pos:])
		pos += n
		onFrame(frame[:n])
	}
	slog.Info("wav source finished", "path", s.path)
}

func (s *WAVSource) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
