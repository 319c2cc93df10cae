package config

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr  = ":8080"
	defaultDBPath      = "tempo.db"
	defaultTimeout     = 180 * time.Second
	defaultParallelism = 1

	envListenAddr     = "TEMPO_LISTEN_ADDR"
	envDBPath         = "TEMPO_DB_PATH"
	envLogLevel       = "TEMPO_LOG_LEVEL"
	envDefaultTimeout = "TEMPO_DEFAULT_TIMEOUT"
	envParallelism    = "TEMPO_PARALLELISM"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr     string
	DBPath         string
	LogLevel       slog.Level
	DefaultTimeout time.Duration
	Parallelism    int
}

// LoadDotEnv copies variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:     defaultListenAddr,
		DBPath:         defaultDBPath,
		LogLevel:       slog.LevelInfo,
		DefaultTimeout: defaultTimeout,
		Parallelism:    defaultParallelism,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = ParseLogLevel(v)
	}
	if v := os.Getenv(envDefaultTimeout); v != "" {
		cfg.DefaultTimeout = parseTimeout(v)
	}
	if v := os.Getenv(envParallelism); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Parallelism = n
		}
	}

	return cfg
}

// ParseLogLevel maps a level name to a slog level. Unknown names mean info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseTimeout accepts a Go duration ("90s") or a number of seconds ("90").
// Invalid or non-positive values fall back to the default.
func parseTimeout(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		if d > 0 {
			return d
		}
		return defaultTimeout
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultTimeout
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
