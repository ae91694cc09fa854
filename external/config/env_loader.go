package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/koetsuki/internal/config"
)

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	STTBackend                 string        `env:"STT_BACKEND" envDefault:"websocket"`
	STTEndpoint                string        `env:"STT_ENDPOINT" envDefault:"ws://localhost:3001"`
	STTConnectTimeout          time.Duration `env:"STT_CONNECT_TIMEOUT" envDefault:"10s"`
	STTWriteTimeout            time.Duration `env:"STT_WRITE_TIMEOUT" envDefault:"5s"`
	AudioSource                string        `env:"AUDIO_SOURCE" envDefault:"microphone"`
	AudioWAVPath               string        `env:"AUDIO_WAV_PATH"`
	AudioNativeSampleRate      int           `env:"AUDIO_NATIVE_SAMPLE_RATE" envDefault:"48000"`
	AudioFramesPerBuffer       int           `env:"AUDIO_FRAMES_PER_BUFFER" envDefault:"480"`
	AudioPacketQueueSize       int           `env:"AUDIO_PACKET_QUEUE_SIZE" envDefault:"32"`
	TranscriptTokensPerLine    int           `env:"TRANSCRIPT_TOKENS_PER_LINE" envDefault:"14"`
	TranscriptTimezone         string        `env:"TRANSCRIPT_TIMEZONE" envDefault:"UTC"`
	TranscriptWebhookURL       string        `env:"TRANSCRIPT_WEBHOOK_URL"`
	DatabaseURL                string        `env:"DATABASE_URL"`
	DiscordToken               string        `env:"DISCORD_TOKEN"`
	DiscordChannelID           string        `env:"DISCORD_CHANNEL_ID"`
	GoogleCloudProjectID       string        `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string        `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string        `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	GoogleCloudSpeechLanguage  string        `env:"GOOGLE_CLOUD_SPEECH_LANGUAGE" envDefault:"en-US"`
	MetricsAddr                string        `env:"METRICS_ADDR"`
	LogFile                    string        `env:"LOG_FILE"`
	ViewRefreshInterval        time.Duration `env:"VIEW_REFRESH_INTERVAL" envDefault:"200ms"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		STTBackend:                 raw.STTBackend,
		STTEndpoint:                raw.STTEndpoint,
		STTConnectTimeout:          raw.STTConnectTimeout,
		STTWriteTimeout:            raw.STTWriteTimeout,
		AudioSource:                raw.AudioSource,
		AudioWAVPath:               raw.AudioWAVPath,
		AudioNativeSampleRate:      raw.AudioNativeSampleRate,
		AudioFramesPerBuffer:       raw.AudioFramesPerBuffer,
		AudioPacketQueueSize:       raw.AudioPacketQueueSize,
		TranscriptTokensPerLine:    raw.TranscriptTokensPerLine,
		TranscriptTimezone:         raw.TranscriptTimezone,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
		DatabaseURL:                raw.DatabaseURL,
		DiscordToken:               raw.DiscordToken,
		DiscordChannelID:           raw.DiscordChannelID,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		GoogleCloudSpeechLanguage:  raw.GoogleCloudSpeechLanguage,
		MetricsAddr:                raw.MetricsAddr,
		LogFile:                    raw.LogFile,
		ViewRefreshInterval:        raw.ViewRefreshInterval,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
