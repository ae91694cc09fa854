//go:build !portaudio

package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/koetsuki/internal/audio"
)

func TestMicrophoneStubReportsDevice(t *testing.T) {
	src := NewMicrophoneSource(48000, 480)
	if src.SampleRate() != 48000 {
		t.Fatalf("unexpected sample rate: %d", src.SampleRate())
	}
	if err := src.Start(context.Background(), func(audio.Frame) {}); !errors.Is(err, audio.ErrDevice) {
		t.Fatalf("expected ErrDevice, got %v", err)
	}
}
