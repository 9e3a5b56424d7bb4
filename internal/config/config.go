// Package config loads runtime settings from environment variables.
//
// Every field has a default, so the server starts with no environment at
// all. Variables are grouped by prefix (SERVER_, SESSION_, CORS_, ...).
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Server    ServerConfig    `env:",prefix=SERVER_"`
	DB        DBConfig        `env:",prefix=DB_"`
	Session   SessionConfig   `env:",prefix=SESSION_"`
	Security  SecurityConfig  `env:",prefix="`
	CORS      CORSConfig      `env:",prefix=CORS_"`
	Providers ProvidersConfig `env:",prefix="`
	Log       LogConfig       `env:",prefix=LOG_"`
}

type ServerConfig struct {
	Port         int      `env:"PORT,default=8080"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type DBConfig struct {
	Path string `env:"PATH,default=data/chessmeet.db"`
}

type SessionConfig struct {
	TTL          Duration `env:"TTL,default=7d"`
	CookieName   string   `env:"COOKIE_NAME,default=session_token"`
	CookieSecure bool     `env:"COOKIE_SECURE,default=true"`
}

type SecurityConfig struct {
	BCryptCost int `env:"BCRYPT_COST,default=12"`
	// AuthRateLimit is the number of login/register/session requests allowed
	// per client IP per minute.
	AuthRateLimit int `env:"AUTH_RATE_LIMIT,default=20"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=*"`
}

// ProvidersConfig points at the external chess rating APIs.
type ProvidersConfig struct {
	ChessComBaseURL   string   `env:"CHESSCOM_BASE_URL,default=https://api.chess.com"`
	LichessBaseURL    string   `env:"LICHESS_BASE_URL,default=https://lichess.org"`
	LichessToken      string   `env:"LICHESS_TOKEN"`
	HTTPClientTimeout Duration `env:"HTTP_CLIENT_TIMEOUT,default=10s"`
}

type LogConfig struct {
	Level  string `env:"LEVEL,default=info"`
	Format string `env:"FORMAT,default=text"`
}

// Addr returns the listen address, e.g. ":8080".
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// SlogLevel maps LOG_LEVEL onto a slog.Level. Unknown values fall back to Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// load is Load with an injectable lookuper so tests never touch the real
// process environment.
func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Session.TTL.Duration <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Security.BCryptCost < bcrypt.MinCost || c.Security.BCryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Security.BCryptCost)
	}
	if c.Security.AuthRateLimit <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", c.Security.AuthRateLimit)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}
