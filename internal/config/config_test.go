package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                     "development",
		STTBackend:              BackendWebSocket,
		STTEndpoint:             "ws://localhost:3001",
		STTConnectTimeout:       10 * time.Second,
		STTWriteTimeout:         5 * time.Second,
		AudioSource:             SourceMicrophone,
		AudioNativeSampleRate:   48000,
		AudioFramesPerBuffer:    480,
		AudioPacketQueueSize:    32,
		TranscriptTokensPerLine: 14,
		TranscriptTimezone:      "Asia/Tokyo",
		ViewRefreshInterval:     200 * time.Millisecond,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.STTBackend = "grpc"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidate_CloudSpeechRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.STTBackend = BackendCloudSpeech
	cfg.GoogleCloudSpeechLocation = "global"
	cfg.GoogleCloudSpeechLanguage = "en-US"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when cloud speech credentials are missing")
	}
	cfg.GoogleCloudProjectID = "project-id"
	cfg.GoogleCloudCredentialsJSON = `{"type":"service_account"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_WAVSourceRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.AudioSource = SourceWAV
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when wav path is missing")
	}
	cfg.AudioWAVPath = "speech.wav"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_InvalidQueueSize(t *testing.T) {
	cfg := validConfig()
	cfg.AudioPacketQueueSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive queue size")
	}
}

func TestValidate_DiscordRequiresBothFields(t *testing.T) {
	cfg := validConfig()
	cfg.DiscordToken = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when channel id is missing")
	}
}

func TestValidate_InvalidTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriptTimezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when required fields are missing")
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}

func TestDecoderEndpoint(t *testing.T) {
	cfg := validConfig()
	if got := cfg.DecoderEndpoint(); got != cfg.STTEndpoint {
		t.Fatalf("expected websocket endpoint, got %q", got)
	}
	cfg.STTBackend = BackendCloudSpeech
	cfg.GoogleCloudSpeechLocation = "asia-northeast1"
	cfg.GoogleCloudSpeechModel = "long"
	if got := cfg.DecoderEndpoint(); got != "cloudspeech:asia-northeast1/long" {
		t.Fatalf("unexpected cloud speech endpoint: %q", got)
	}
}
