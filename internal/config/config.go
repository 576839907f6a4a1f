package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	OllamaURL    string `env:"OLLAMA_URL"    envDefault:"http://localhost:11434"`
	Addr         string `env:"ADDR"          envDefault:":8080"`
	DefaultModel string `env:"DEFAULT_MODEL"`

	MaxPromptChars int `env:"MAX_PROMPT_CHARS" envDefault:"8000"`

	ProbeTimeout    time.Duration `env:"PROBE_TIMEOUT"    envDefault:"5s"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"120s"`

	Temperature float64 `env:"TEMPERATURE" envDefault:"0.3"`
	TopP        float64 `env:"TOP_P"       envDefault:"0.9"`

	ModelRefreshSpec string `env:"MODEL_REFRESH_SPEC" envDefault:"@every 5m"`
	MaxUploadBytes   int64  `env:"MAX_UPLOAD_BYTES"   envDefault:"33554432"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
