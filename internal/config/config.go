package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Kas Masjid"`
		Env  string `envconfig:"APP_ENV" default:"development"`
	}

	API struct {
		// BaseURL overrides the environment based selection below.
		BaseURL string        `envconfig:"API_BASE_URL"`
		DevURL  string        `envconfig:"API_DEV_URL" default:"http://localhost:8081/api"`
		ProdURL string        `envconfig:"API_PROD_URL"`
		Timeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	}

	Export struct {
		Dir string `envconfig:"KAS_EXPORT_DIR" default:"./exports"`
	}

	Log struct {
		File  string `envconfig:"KAS_LOG_FILE" default:"kas.log"`
		Level string `envconfig:"KAS_LOG_LEVEL" default:"info"`
	}

	DevAPI struct {
		Port           int      `envconfig:"DEVAPI_PORT" default:"8081"`
		OpeningBalance string   `envconfig:"DEVAPI_OPENING_BALANCE" default:"0"`
		Shape          string   `envconfig:"DEVAPI_SHAPE" default:"nested"`
		AllowedOrigins []string `envconfig:"DEVAPI_ALLOWED_ORIGINS" default:"http://localhost:5173"`
		// DatabaseURL persists the ledger in Postgres when set.
		DatabaseURL string `envconfig:"DEVAPI_DATABASE_URL"`
	}
}

var ErrMissingProdURL = errors.New("API_PROD_URL is required in production")

// BaseURL picks the API base: the local proxy path in development and the
// absolute origin in production, unless API_BASE_URL is set.
func (c *Config) BaseURL() (string, error) {
	if c.API.BaseURL != "" {
		return strings.TrimRight(c.API.BaseURL, "/"), nil
	}

	if c.IsProduction() {
		if c.API.ProdURL == "" {
			return "", ErrMissingProdURL
		}

		return strings.TrimRight(c.API.ProdURL, "/"), nil
	}

	return strings.TrimRight(c.API.DevURL, "/"), nil
}

// LogLevel parses KAS_LOG_LEVEL, falling back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, EnvProduction)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.App.Env = strings.ToLower(cfg.App.Env)

	switch cfg.App.Env {
	case "":
		cfg.App.Env = EnvDevelopment
	case EnvDevelopment, EnvProduction:
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q", cfg.App.Env)
	}

	return &cfg, nil
}
