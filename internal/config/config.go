package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration, loaded from the environment with
// an optional .env overlay for local development.
type Config struct {
	Port        int    `env:"PORT" envDefault:"3001"`
	DatabaseURL string `env:"DATABASE_URL"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`

	WSOrigins []string `env:"WS_ORIGINS" envSeparator:","`

	DisconnectGrace time.Duration `env:"DISCONNECT_GRACE" envDefault:"2m"`
	GuessTimeout    time.Duration `env:"GUESS_TIMEOUT" envDefault:"15s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Env      string `env:"APP_ENV" envDefault:"development"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
