// Package config loads the bot configuration from a .env file and the
// process environment.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel      string        `env:"LOG_LEVEL" envDefault:"info"`            // Log level (e.g. debug, info)
	EnvLogFileName    string        `env:"LOG_FILE_NAME" envDefault:"SeerrBot.log"` // Rotated log file name
	EnvBotToken       string        `env:"TOKEN_BOT"`                              // Telegram bot token
	EnvOverseerrURL   string        `env:"OVERSEERR_API_URL"`                      // Overseerr base URL incl. /api/v1
	EnvOverseerrKey   string        `env:"OVERSEERR_API_KEY"`                      // Overseerr API key
	EnvBotPassword    string        `env:"BOT_PASSWORD"`                           // Optional access password; empty disables the gate
	EnvSessionsPath   string        `env:"SESSIONS_FILE_PATH" envDefault:"sessions.json"`
	EnvBotConfigPath  string        `env:"BOT_CONFIG_FILE_PATH" envDefault:"botconfig.json"`
	EnvStatusAddr     string        `env:"STATUS_ADDR" envDefault:":8080"`         // Operational HTTP endpoint
	EnvRequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`       // Overseerr call timeout
}

// NewConfig loads bot.env (when present) and parses the environment.
// Returns an error if a mandatory variable is missing.
func NewConfig() (*Config, error) {
	if err := godotenv.Load("bot.env"); err != nil {
		logrus.Infof("No bot.env file loaded: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	flag.StringVar(&cfg.EnvLogsLevel, "l", cfg.EnvLogsLevel, "Set logging level")
	flag.Parse()

	if cfg.EnvBotToken == "" {
		return nil, fmt.Errorf("TOKEN_BOT must be set")
	}
	if cfg.EnvOverseerrURL == "" || cfg.EnvOverseerrKey == "" {
		return nil, fmt.Errorf("OVERSEERR_API_URL and OVERSEERR_API_KEY must be set")
	}
	return cfg, nil
}
