package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/stepout.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	// APIKey is the older variable name the web build used.
	APIKey      string `env:"API_KEY"`
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	RedisURL          string        `env:"REDIS_URL"`
	NarrationCacheTTL time.Duration `env:"NARRATION_CACHE_TTL" envDefault:"10m"`

	MQTTBroker string `env:"MQTT_BROKER"`
	MQTTTopic  string `env:"MQTT_TOPIC" envDefault:"owntracks/+/{device}"`

	MissionsFile   string        `env:"MISSIONS_FILE"`
	DebugTokenHash string        `env:"DEBUG_TOKEN_HASH"`
	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
}

// GeminiKey returns the configured Gemini key, preferring GEMINI_API_KEY.
func (c *Config) GeminiKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// Load reads the environment, after applying an optional .env file from the
// working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	return &cfg, nil
}
