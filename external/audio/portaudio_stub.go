//go:build !portaudio

package audio

import (
	"context"
	"fmt"

	"github.com/foxseedlab/koetsuki/internal/audio"
)

type MicrophoneSource struct {
	sampleRate int
}

func NewMicrophoneSource(sampleRate, _ int) *MicrophoneSource {
	return &MicrophoneSource{sampleRate: sampleRate}
}

func (s *MicrophoneSource) SampleRate() int {
	return s.sampleRate
}

func (s *MicrophoneSource) Start(context.Context, func(audio.Frame)) error {
	return fmt.Errorf("%w: built without portaudio support", audio.ErrDevice)
}

func (s *MicrophoneSource) Close() error {
	return nil
}
