package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/xpboard/internal/media"
)

// Config is the process configuration, read from XPBOARD_* variables.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	JWTSecret string
	JWTIssuer string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	S3             media.S3Config
	MediaBaseURL   string
	MaxUploadBytes int64

	// AllowedOrigins are websocket origin patterns.
	AllowedOrigins []string
}

// Load reads .env (if present) and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err.Error())
	}

	cfg := Config{
		Port:      getEnv("XPBOARD_PORT", "8080"),
		DBPath:    getEnv("XPBOARD_DB_PATH", "xpboard.db"),
		LogLevel:  getEnv("XPBOARD_LOG_LEVEL", "info"),
		LogFormat: getEnv("XPBOARD_LOG_FORMAT", "text"),

		JWTSecret: os.Getenv("XPBOARD_JWT_SECRET"),
		JWTIssuer: os.Getenv("XPBOARD_JWT_ISSUER"),

		RedisAddr:     os.Getenv("XPBOARD_REDIS_ADDR"),
		RedisPassword: os.Getenv("XPBOARD_REDIS_PASSWORD"),
		CacheTTL:      getDuration("XPBOARD_CACHE_TTL", 60*time.Second),

		S3: media.S3Config{
			Endpoint:  os.Getenv("XPBOARD_S3_ENDPOINT"),
			Bucket:    os.Getenv("XPBOARD_S3_BUCKET"),
			Region:    getEnv("XPBOARD_S3_REGION", "auto"),
			AccessKey: os.Getenv("XPBOARD_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("XPBOARD_S3_SECRET_KEY"),
		},
		MediaBaseURL:   os.Getenv("XPBOARD_MEDIA_BASE_URL"),
		MaxUploadBytes: getInt64("XPBOARD_MAX_UPLOAD_BYTES", 5<<20),
	}
	if origins := os.Getenv("XPBOARD_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	return cfg
}

// Validate reports configuration the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("XPBOARD_JWT_SECRET is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("XPBOARD_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
