package transport

import (
	"github.com/foxseedlab/koetsuki/internal/config"
	"github.com/foxseedlab/koetsuki/internal/metrics"
	"github.com/foxseedlab/koetsuki/internal/transport"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transport.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.STTBackend == config.BackendCloudSpeech {
			return NewCloudSpeechClient(CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Language:        c.GoogleCloudSpeechLanguage,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.GoogleCloudSpeechModel,
			}), nil
		}
		return NewWebSocketClient(WebSocketConfig{
			Endpoint:     c.STTEndpoint,
			WriteTimeout: c.STTWriteTimeout,
		}, do.MustInvoke[*metrics.Metrics](i)), nil
	})
}
