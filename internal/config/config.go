package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

const (
	DefaultPort      = 5000
	DefaultSMTPHost  = "smtp.gmail.com"
	DefaultSMTPPort  = 465
	DefaultRateRPS   = 3.0
	DefaultRateBurst = 5
)

// Config holds the application settings read from the environment (and .env, via godotenv).
type Config struct {
	Port      int
	SecretKey string
	Env       string
	LogLevel  zerolog.Level

	SMTPEmail    string
	SMTPPassword string
	SMTPHost     string
	SMTPPort     int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load builds a Config from the environment. Missing values fall back to defaults;
// malformed numeric values are reported as errors.
func Load() (*Config, error) {
	cfg := &Config{
		SecretKey:    os.Getenv("SECRET_KEY"),
		Env:          getEnv("APP_ENV", "development"),
		SMTPEmail:    os.Getenv("SMTP_EMAIL"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPHost:     getEnv("SMTP_HOST", DefaultSMTPHost),
	}

	var err error
	if cfg.Port, err = getInt("PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", DefaultSMTPPort); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", DefaultRateBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", DefaultRateRPS); err != nil {
		return nil, err
	}

	cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// EmailEnabled reports whether SMTP credentials are present.
func (c *Config) EmailEnabled() bool {
	return c.SMTPEmail != "" && c.SMTPPassword != ""
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, raw)
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", key, raw)
	}
	return v, nil
}
