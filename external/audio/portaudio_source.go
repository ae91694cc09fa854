//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/koetsuki/internal/audio"
	"github.com/gordonklaus/portaudio"
)

type MicrophoneSource struct {
	sampleRate      int
	framesPerBuffer int

	mu     sync.Mutex
	stream *portaudio.Stream
}

func NewMicrophoneSource(sampleRate, framesPerBuffer int) *MicrophoneSource {
	return &MicrophoneSource{sampleRate: sampleRate, framesPerBuffer: framesPerBuffer}
}

func (s *MicrophoneSource) SampleRate() int {
	return s.sampleRate
}

func (s *MicrophoneSource) Start(ctx context.Context, onFrame func(audio.Frame)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize portaudio: %v", audio.ErrDevice, err)
	}
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(s.sampleRate), s.framesPerBuffer, func(in []float32) {
		onFrame(audio.Frame(in))
	})
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: open input stream: %v", audio.ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: start input stream: %v", audio.ErrDevice, err)
	}
	s.stream = stream
	slog.Info("microphone capture started", "sample_rate", s.sampleRate, "frames_per_buffer", s.framesPerBuffer)

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return nil
}

func (s *MicrophoneSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	stream := s.stream
	s.stream = nil
	if err := stream.Stop(); err != nil {
		slog.Warn("failed to stop input stream", "error", err)
	}
	if err := stream.Close(); err != nil {
		slog.Warn("failed to close input stream", "error", err)
	}
	slog.Info("microphone capture stopped")
	return portaudio.Terminate()
}
