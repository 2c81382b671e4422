package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	// ServerURL is the speech-to-speech WebSocket endpoint.
	ServerURL string `env:"S2S_SERVER_URL" envDefault:"ws://localhost:8080"`

	// VoiceID selects the synthesized voice. Must be one of Voices.
	VoiceID string `env:"S2S_VOICE_ID" envDefault:"matthew"`

	// SystemPrompt overrides DefaultSystemPrompt when set.
	SystemPrompt string `env:"S2S_SYSTEM_PROMPT"`

	// IncludeChatHistory requests prior conversation context. Reserved:
	// accepted and threaded through, but the handshake does not act on it
	// yet.
	IncludeChatHistory bool `env:"S2S_INCLUDE_CHAT_HISTORY"`

	// CaptureRate is the microphone's native sample rate in Hz.
	CaptureRate int `env:"S2S_CAPTURE_RATE" envDefault:"48000"`

	// WriteTimeout bounds individual WebSocket writes.
	WriteTimeout time.Duration `env:"S2S_WRITE_TIMEOUT" envDefault:"10s"`

	// RedisURL enables the optional session status registry when set.
	RedisURL      string `env:"REDIS_URL"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

// Voices lists the selectable voice identifiers.
var Voices = map[string]string{
	"matthew": "Matthew (en-US)",
	"tiffany": "Tiffany (en-US)",
	"amy":     "Amy (en-GB)",
}

// Load reads configuration from the environment, with .env support.
func Load() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if _, ok := Voices[cfg.VoiceID]; !ok {
		return nil, fmt.Errorf("unknown voice %q", cfg.VoiceID)
	}
	if cfg.CaptureRate < 8000 {
		return nil, fmt.Errorf("invalid S2S_CAPTURE_RATE %d", cfg.CaptureRate)
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	return &cfg, nil
}
