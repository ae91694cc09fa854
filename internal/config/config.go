package config

import (
	"fmt"
	"time"
)

const (
	BackendWebSocket   = "websocket"
	BackendCloudSpeech = "cloudspeech"

	SourceMicrophone = "microphone"
	SourceWAV        = "wav"
)

type Config struct {
	Env string

	STTBackend        string
	STTEndpoint       string
	STTConnectTimeout time.Duration
	STTWriteTimeout   time.Duration

	AudioSource           string
	AudioWAVPath          string
	AudioNativeSampleRate int
	AudioFramesPerBuffer  int
	AudioPacketQueueSize  int

	TranscriptTokensPerLine int
	TranscriptTimezone      string
	TranscriptWebhookURL    string

	DatabaseURL string

	DiscordToken     string
	DiscordChannelID string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	GoogleCloudSpeechLanguage  string

	MetricsAddr         string
	LogFile             string
	ViewRefreshInterval time.Duration
}

func (c *Config) Validate() error {
	switch c.STTBackend {
	case BackendWebSocket:
		if c.STTEndpoint == "" {
			return fmt.Errorf("STT_ENDPOINT is required when STT_BACKEND=%s", BackendWebSocket)
		}
	case BackendCloudSpeech:
		for _, req := range c.cloudSpeechFieldChecks() {
			if req.value == "" {
				return fmt.Errorf("%s is required when STT_BACKEND=%s", req.name, BackendCloudSpeech)
			}
		}
	default:
		return fmt.Errorf("STT_BACKEND must be %q or %q, got %q", BackendWebSocket, BackendCloudSpeech, c.STTBackend)
	}
	switch c.AudioSource {
	case SourceMicrophone:
	case SourceWAV:
		if c.AudioWAVPath == "" {
			return fmt.Errorf("AUDIO_WAV_PATH is required when AUDIO_SOURCE=%s", SourceWAV)
		}
	default:
		return fmt.Errorf("AUDIO_SOURCE must be %q or %q, got %q", SourceMicrophone, SourceWAV, c.AudioSource)
	}
	for _, p := range c.positiveFieldChecks() {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.STTConnectTimeout <= 0 {
		return fmt.Errorf("STT_CONNECT_TIMEOUT must be positive, got %s", c.STTConnectTimeout)
	}
	if c.STTWriteTimeout <= 0 {
		return fmt.Errorf("STT_WRITE_TIMEOUT must be positive, got %s", c.STTWriteTimeout)
	}
	if c.ViewRefreshInterval <= 0 {
		return fmt.Errorf("VIEW_REFRESH_INTERVAL must be positive, got %s", c.ViewRefreshInterval)
	}
	if c.TranscriptTokensPerLine < 0 {
		return fmt.Errorf("TRANSCRIPT_TOKENS_PER_LINE must not be negative, got %d", c.TranscriptTokensPerLine)
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	if c.TranscriptTimezone == "" {
		return fmt.Errorf("TRANSCRIPT_TIMEZONE is required")
	}
	if _, err := time.LoadLocation(c.TranscriptTimezone); err != nil {
		return fmt.Errorf("TRANSCRIPT_TIMEZONE is invalid: %w", err)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) cloudSpeechFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "GOOGLE_CLOUD_SPEECH_LOCATION", value: c.GoogleCloudSpeechLocation},
		{name: "GOOGLE_CLOUD_SPEECH_LANGUAGE", value: c.GoogleCloudSpeechLanguage},
	}
}

type positiveEnvField struct {
	name  string
	value int
}

func (c *Config) positiveFieldChecks() []positiveEnvField {
	return []positiveEnvField{
		{name: "AUDIO_NATIVE_SAMPLE_RATE", value: c.AudioNativeSampleRate},
		{name: "AUDIO_FRAMES_PER_BUFFER", value: c.AudioFramesPerBuffer},
		{name: "AUDIO_PACKET_QUEUE_SIZE", value: c.AudioPacketQueueSize},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TranscriptTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) DecoderEndpoint() string {
	if c.STTBackend == BackendCloudSpeech {
		return fmt.Sprintf("cloudspeech:%s/%s", c.GoogleCloudSpeechLocation, c.GoogleCloudSpeechModel)
	}
	return c.STTEndpoint
}
