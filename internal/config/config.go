package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the companion service.
// Environment variables are parsed from the COMPANION_ prefix.
type Config struct {
	// Build target selects the deployment flavor: local | cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// DBDriver is derived from BuildTarget when "auto".
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres (cloud target)
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite (local target)
	SQLitePath string `envconfig:"SQLITE_PATH" default:"companion.db"`

	// Chat provider. BaseURL empty means the provider's public endpoint;
	// set it to use any OpenAI-compatible service.
	LLMAPIKey  string `envconfig:"LLM_API_KEY" default:""`
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:""`
	ChatModel  string `envconfig:"CHAT_MODEL" default:"llama-3.1-8b-instant"`
	// ExtractModel also serves the summarizer; both are background calls.
	ExtractModel string `envconfig:"EXTRACT_MODEL" default:"llama-3.1-8b-instant"`

	// Vision provider (media describer)
	VisionAPIKey  string `envconfig:"VISION_API_KEY" default:""`
	VisionModel   string `envconfig:"VISION_MODEL" default:"gemini-1.5-flash"`
	VisionBaseURL string `envconfig:"VISION_BASE_URL" default:""`

	HealthIntervalSeconds int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when "auto".
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("COMPANION_POSTGRES_DSN is required when DB_DRIVER=postgres")
	}
	return nil
}

// New creates a Config by parsing COMPANION_-prefixed environment variables.
// Example: COMPANION_HTTP_PORT, COMPANION_LLM_API_KEY.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("COMPANION", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("chat_model", cfg.ChatModel).
		Str("extract_model", cfg.ExtractModel).
		Str("vision_model", cfg.VisionModel).
		Bool("llm_key_present", cfg.LLMAPIKey != "").
		Bool("vision_key_present", cfg.VisionAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}
