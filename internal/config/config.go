package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from the environment (a .env file is honored in
// development). The API key is the only required setting.
type Config struct {
	Port       string `envconfig:"PORT" default:"8080"`
	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"*"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// TextBackend selects "gemini" (default) or "openai" for any
	// OpenAI-compatible chat-completions service.
	TextBackend   string `envconfig:"TEXT_BACKEND" default:"gemini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	TextModel   string `envconfig:"TEXT_MODEL"`
	ImageModel  string `envconfig:"IMAGE_MODEL"`
	SpeechModel string `envconfig:"SPEECH_MODEL"`
	VoiceName   string `envconfig:"VOICE_NAME"`

	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"90s"`
	AIMaxRetries     int           `envconfig:"AI_MAX_RETRIES" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"2s"`
	AIMaxRetryJitter time.Duration `envconfig:"AI_MAX_RETRY_JITTER" default:"1s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return &cfg, nil
}
