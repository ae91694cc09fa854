package audio

import (
	"github.com/foxseedlab/koetsuki/internal/audio"
	"github.com/foxseedlab/koetsuki/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Source, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.AudioSource == config.SourceWAV {
			return NewWAVSource(c.AudioWAVPath, c.AudioFramesPerBuffer)
		}
		return NewMicrophoneSource(c.AudioNativeSampleRate, c.AudioFramesPerBuffer), nil
	})
}
