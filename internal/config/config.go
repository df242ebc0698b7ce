// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Owner session
	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`
	AdminPass     string `env:"ADMIN_PASS"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL    string `env:"BASE_URL,required,notEmpty"`

	// Cookie
	CookieSecure bool // BASE_URLがhttps://の場合にtrue
	CookieDomain string `env:"COOKIE_DOMAIN"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Garage
	SlugMaxAttempts int `env:"SLUG_MAX_ATTEMPTS" envDefault:"1000"`

	// Rate Limit（req/min）
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitCreate  int `env:"RATE_LIMIT_CREATE" envDefault:"20"`

	// Photo proxy
	PhotoFetchTimeout time.Duration `env:"PHOTO_FETCH_TIMEOUT" envDefault:"10s"`
	PhotoMaxSize      int64         `env:"PHOTO_MAX_SIZE" envDefault:"5242880"`

	// Cleanup
	ParticipantRetentionDays int           `env:"PARTICIPANT_RETENTION_DAYS" envDefault:"180"`
	CleanupInterval          time.Duration `env:"CLEANUP_INTERVAL" envDefault:"24h"`

	// Tracing
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.SlugMaxAttempts <= 0 {
		return nil, fmt.Errorf("SLUG_MAX_ATTEMPTS must be positive: %d", cfg.SlugMaxAttempts)
	}
	if cfg.RateLimitGeneral <= 0 || cfg.RateLimitCreate <= 0 {
		return nil, fmt.Errorf("rate limits must be positive: general=%d create=%d",
			cfg.RateLimitGeneral, cfg.RateLimitCreate)
	}

	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	return cfg, nil
}
