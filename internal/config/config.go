// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every tunable the server reads at boot. Connection strings
// left empty disable their integration rather than failing startup.
type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"minormax.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	AuthSecret  string `env:"AUTH_SECRET"`

	// Comma-separated origins allowed to open WebSocket connections.
	// "*" allows any origin.
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("config: no .env file loaded: %v", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// OriginAllowed reports whether a request Origin host may connect.
func (c Config) OriginAllowed(origin string) bool {
	if c.AllowedOrigins == "*" || origin == "" {
		return true
	}
	for _, allowed := range strings.Split(c.AllowedOrigins, ",") {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	return false
}
