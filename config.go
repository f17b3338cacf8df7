package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"wordrill/internal/drill"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	Port    string `env:"PORT" env-default:"8080"`
	Env     string `env:"ENV" env-default:"development"`
	GinMode string `env:"GIN_MODE"`

	WordsPath string `env:"WORDS_JSON" env-default:"data/words.json"`
	// StatsPath is the ledger file. Empty keeps progress in memory only.
	StatsPath string `env:"STATS_FILE" env-default:"data/stats.json"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" env-default:"5"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" env-default:"10"`

	HintTimeout      time.Duration `env:"HINT_TIMEOUT" env-default:"10s"`
	MaxHints         int           `env:"MAX_HINTS" env-default:"3"`
	RoundBaseTimeout time.Duration `env:"ROUND_BASE_TIMEOUT" env-default:"10s"`
	RoundPerMatch    time.Duration `env:"ROUND_PER_MATCH" env-default:"3s"`
	RetryPause       time.Duration `env:"RETRY_PAUSE" env-default:"10s"`
	StopKeyword      string        `env:"STOP_KEYWORD" env-default:"endmemorize"`

	NoticeHistory   int           `env:"NOTICE_HISTORY" env-default:"50"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// loadConfig reads .env if present, then the environment.
func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logInfo("No .env file loaded: %v", err)
	}
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values cleanenv cannot.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if strings.TrimSpace(c.WordsPath) == "" {
		errs = append(errs, errors.New("WORDS_JSON is empty"))
	}
	if c.RateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.RateLimitRPS))
	}
	if c.RateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst))
	}
	if c.MaxHints < 1 {
		errs = append(errs, fmt.Errorf("MAX_HINTS must be at least 1, got %d", c.MaxHints))
	}
	for name, d := range map[string]time.Duration{
		"HINT_TIMEOUT":       c.HintTimeout,
		"ROUND_BASE_TIMEOUT": c.RoundBaseTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	if c.RoundPerMatch < 0 || c.RetryPause < 0 {
		errs = append(errs, errors.New("ROUND_PER_MATCH and RETRY_PAUSE cannot be negative"))
	}
	if strings.TrimSpace(c.StopKeyword) == "" {
		errs = append(errs, errors.New("STOP_KEYWORD is empty"))
	}
	if c.NoticeHistory < 0 {
		errs = append(errs, fmt.Errorf("NOTICE_HISTORY cannot be negative, got %d", c.NoticeHistory))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the server runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release" || c.Env == "production"
}

// Timings are the drill clocks from the config.
func (c *Config) Timings() drill.Timings {
	return drill.Timings{
		HintTimeout:   c.HintTimeout,
		MaxHints:      c.MaxHints,
		RoundBase:     c.RoundBaseTimeout,
		RoundPerMatch: c.RoundPerMatch,
		RetryPause:    c.RetryPause,
	}
}
