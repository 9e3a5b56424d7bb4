package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, "data/chessmeet.db", cfg.DB.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL.Duration)
	assert.Equal(t, "session_token", cfg.Session.CookieName)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 12, cfg.Security.BCryptCost)
	assert.Equal(t, 20, cfg.Security.AuthRateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://api.chess.com", cfg.Providers.ChessComBaseURL)
	assert.Equal(t, "https://lichess.org", cfg.Providers.LichessBaseURL)
	assert.Empty(t, cfg.Providers.LichessToken)
	assert.Equal(t, 10*time.Second, cfg.Providers.HTTPClientTimeout.Duration)
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"SERVER_PORT":           "9090",
		"DB_PATH":               ":memory:",
		"SESSION_TTL":           "36h",
		"SESSION_COOKIE_SECURE": "false",
		"CORS_ALLOWED_ORIGINS":  "http://localhost:3000,https://chessmeet.example",
		"LICHESS_TOKEN":         "lip_abc",
		"LOG_LEVEL":             "debug",
		"LOG_FORMAT":            "json",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr())
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.Equal(t, 36*time.Hour, cfg.Session.TTL.Duration)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{"http://localhost:3000", "https://chessmeet.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "lip_abc", cfg.Providers.LichessToken)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"zero ttl", map[string]string{"SESSION_TTL": "0d"}},
		{"garbage ttl", map[string]string{"SESSION_TTL": "week"}},
		{"bcrypt cost too high", map[string]string{"BCRYPT_COST": "40"}},
		{"bcrypt cost too low", map[string]string{"BCRYPT_COST": "1"}},
		{"rate limit zero", map[string]string{"AUTH_RATE_LIMIT": "0"}},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestDuration_EnvDecode(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"15s", 15 * time.Second, false},
		{"xd", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.EnvDecode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "verbose"}.SlogLevel())
}
