package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dom/gallery-cms/internal/csrf"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)

type Config struct {
	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Database
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"mysql"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`

	// Sessions
	SessionStore        string        `env:"SESSION_STORE" envDefault:"database"`
	RedisURL            string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionSecret       string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"cms_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// CSRF
	CSRFTokenTTLSeconds int    `env:"CSRF_TOKEN_TTL" envDefault:"3600"`
	CSRFMaxTokens       int    `env:"CSRF_MAX_TOKENS" envDefault:"10"`
	CSRFValidateOrigin  bool   `env:"CSRF_VALIDATE_ORIGIN" envDefault:"true"`
	CSRFValidateReferer bool   `env:"CSRF_VALIDATE_REFERER" envDefault:"true"`
	CSRFRequireHeaders  bool   `env:"CSRF_REQUIRE_HEADERS" envDefault:"false"`
	CSRFFieldName       string `env:"CSRF_FIELD_NAME" envDefault:"csrf_token"`

	// Content
	ArticlesPerPage int `env:"ARTICLES_PER_PAGE" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Bootstrap admin, created on start when the users table is empty
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot express.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.SessionStore {
	case SessionStoreDatabase, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}

	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.CSRFTokenTTLSeconds <= 0 {
		return errors.New("CSRF_TOKEN_TTL must be positive")
	}
	if c.CSRFMaxTokens <= 0 {
		return errors.New("CSRF_MAX_TOKENS must be positive")
	}
	if c.ArticlesPerPage <= 0 {
		return errors.New("ARTICLES_PER_PAGE must be positive")
	}
	if c.CSRFFieldName == "" {
		return errors.New("CSRF_FIELD_NAME must not be empty")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CSRF projects the anti-forgery settings.
func (c *Config) CSRF() csrf.Config {
	return csrf.Config{
		TokenTTL:        time.Duration(c.CSRFTokenTTLSeconds) * time.Second,
		MaxTokens:       c.CSRFMaxTokens,
		ValidateOrigin:  c.CSRFValidateOrigin,
		ValidateReferer: c.CSRFValidateReferer,
		RequireHeaders:  c.CSRFRequireHeaders,
		FieldName:       c.CSRFFieldName,
	}
}

func (c *Config) Session() session.Config {
	return session.Config{
		CookieName: c.SessionCookieName,
		TTL:        c.SessionTTL,
		Secure:     c.SessionCookieSecure || c.IsProduction(),
		Secret:     []byte(c.SessionSecret),
	}
}
