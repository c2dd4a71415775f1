// Package config loads the server configuration from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Zachkp/folio/internal/mail"
)

// Config holds every setting of the portfolio server.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Addr        string `env:"HTTP_ADDR"`
	GinMode     string `env:"GIN_MODE" envDefault:"release"`
	ContentPath string `env:"CONTENT_PATH"`
	DBPath      string `env:"DB_PATH" envDefault:"folio.db"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"./static"`
	ImagesDir   string `env:"IMAGES_DIR" envDefault:"./images"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	VisitorRetention time.Duration `env:"VISITOR_RETENTION" envDefault:"8760h"`
	CleanupInterval  time.Duration `env:"CLEANUP_INTERVAL" envDefault:"24h"`

	Mail mail.Config
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// ListenAddr returns HTTP_ADDR, or ":"+PORT when unset.
func (c Config) ListenAddr() string {
	if strings.TrimSpace(c.Addr) != "" {
		return c.Addr
	}
	return ":" + c.Port
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	if c.VisitorRetention <= 0 {
		return fmt.Errorf("VISITOR_RETENTION must be positive")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be positive")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
	}
	return nil
}

// AdminCredentials returns the admin login, falling back to development
// defaults. The bool reports whether defaults were used.
func (c Config) AdminCredentials() (user, pass string, defaulted bool) {
	user, pass = c.AdminUsername, c.AdminPassword
	if user == "" {
		user, defaulted = "admin", true
	}
	if pass == "" {
		pass, defaulted = "admin123", true
	}
	return user, pass, defaulted
}
