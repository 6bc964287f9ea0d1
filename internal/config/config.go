// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all runtime settings for the tutoring service.
type Config struct {
	BindAddr                 string        `env:"APP_BIND_ADDR" envDefault:":8080"`
	ShutdownTimeout          time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	SessionInactivityTimeout time.Duration `env:"APP_SESSION_INACTIVITY_TIMEOUT" envDefault:"30m"`
	MetricsNamespace         string        `env:"APP_METRICS_NAMESPACE" envDefault:"studybuddy"`
	AllowAnyOrigin           bool          `env:"APP_ALLOW_ANY_ORIGIN" envDefault:"false"`

	LogLevel  string `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"APP_LOG_PRETTY" envDefault:"false"`

	// Empty API key selects the deterministic mock client; useful for
	// local development without credentials.
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL string        `env:"GEMINI_BASE_URL"`
	GeminiModel   string        `env:"GEMINI_MODEL"`
	TutorRetries  int           `env:"TUTOR_MAX_RETRIES" envDefault:"0"`
	TutorBackoff  time.Duration `env:"TUTOR_RETRY_BACKOFF" envDefault:"250ms"`

	// Empty DATABASE_URL selects the in-memory history store.
	DatabaseURL string `env:"DATABASE_URL"`

	ClearOnLogout      bool          `env:"APP_CLEAR_ON_LOGOUT" envDefault:"true"`
	HistorySaveTimeout time.Duration `env:"APP_HISTORY_SAVE_TIMEOUT" envDefault:"5s"`
}

// Load reads environment variables and applies defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout)
	}
	if cfg.SessionInactivityTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be positive, got %s", cfg.SessionInactivityTimeout)
	}
	if cfg.TutorRetries < 0 {
		return Config{}, fmt.Errorf("TUTOR_MAX_RETRIES must not be negative, got %d", cfg.TutorRetries)
	}
	return cfg, nil
}
