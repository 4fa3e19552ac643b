// Package config builds the service configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Addr        string
	CORSOrigins string
}

type GRPCConfig struct {
	Addr string
}

type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type AuthConfig struct {
	JWTSecret  string
	CookieName string
}

type DiscussionConfig struct {
	PageSize          int
	ReplyDepth        int
	IdempotencyTTL    time.Duration
	MarkdownCacheSize int
}

type AppConfig struct {
	ServiceName string
	Env         string
	Log         LogConfig
	HTTP        HTTPConfig
	GRPC        GRPCConfig
	DatabaseURL string
	RedisDSN    string
	NATSURL     string
	Auth        AuthConfig
	Discussion  DiscussionConfig
}

// IsProd reports whether APP_ENV names a production deployment.
func (c AppConfig) IsProd() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Load reads the environment, after merging an optional .env file (or the
// file named by ENV_FILE). Variables already set win over the file.
func Load() (AppConfig, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := AppConfig{
		ServiceName: env("SERVICE_NAME", ""),
		Env:         strings.ToLower(env("APP_ENV", "development")),
		Log: LogConfig{
			Level:      env("LOG_LEVEL", "info"),
			Path:       env("LOG_PATH", ""),
			MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   envBool("LOG_COMPRESS", true),
		},
		HTTP: HTTPConfig{
			Addr:        env("HTTP_ADDR", ":8080"),
			CORSOrigins: env("CORS_ALLOWED_ORIGINS", ""),
		},
		GRPC:        GRPCConfig{Addr: env("GRPC_ADDR", ":9090")},
		DatabaseURL: env("DATABASE_URL", ""),
		RedisDSN:    env("REDIS_DSN", ""),
		NATSURL:     env("NATS_URL", ""),
		Auth: AuthConfig{
			JWTSecret:  env("JWT_SECRET", ""),
			CookieName: env("AUTH_COOKIE_NAME", "access_token"),
		},
		Discussion: DiscussionConfig{
			PageSize:          envInt("DISCUSSION_PAGE_SIZE", 20),
			ReplyDepth:        envInt("DISCUSSION_REPLY_DEPTH", 4),
			IdempotencyTTL:    envDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			MarkdownCacheSize: envInt("MARKDOWN_CACHE_SIZE", 1024),
		},
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.Discussion.PageSize <= 0 || cfg.Discussion.PageSize > 100 {
		return AppConfig{}, fmt.Errorf("DISCUSSION_PAGE_SIZE must be in 1..100, got %d", cfg.Discussion.PageSize)
	}
	if cfg.Discussion.ReplyDepth <= 0 {
		return AppConfig{}, fmt.Errorf("DISCUSSION_REPLY_DEPTH must be positive, got %d", cfg.Discussion.ReplyDepth)
	}
	if cfg.IsProd() {
		if cfg.DatabaseURL == "" {
			return AppConfig{}, errors.New("DATABASE_URL is required in production")
		}
		if cfg.Auth.JWTSecret == "" {
			return AppConfig{}, errors.New("JWT_SECRET is required in production")
		}
	}
	return cfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
