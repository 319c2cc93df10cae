package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envListenAddr, envDBPath, envLogLevel, envDefaultTimeout, envParallelism} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.ListenAddr != defaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, defaultListenAddr)
	}
	if cfg.DBPath != defaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.DefaultTimeout != 180*time.Second {
		t.Errorf("DefaultTimeout = %v, want 180s", cfg.DefaultTimeout)
	}
	if cfg.Parallelism != 1 {
		t.Errorf("Parallelism = %d, want 1", cfg.Parallelism)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(envListenAddr, ":9090")
	t.Setenv(envDBPath, "/tmp/test.db")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envDefaultTimeout, "45s")
	t.Setenv(envParallelism, "4")

	cfg := Load()

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/test.db")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.DefaultTimeout != 45*time.Second {
		t.Errorf("DefaultTimeout = %v, want 45s", cfg.DefaultTimeout)
	}
	if cfg.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", cfg.Parallelism)
	}
}

func TestLoadInvalidParallelism(t *testing.T) {
	clearEnv(t)
	t.Setenv(envParallelism, "-2")

	if got := Load().Parallelism; got != defaultParallelism {
		t.Errorf("Parallelism = %d, want %d", got, defaultParallelism)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := ParseLogLevel(tt.input)
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"90s", 90 * time.Second},
		{"1m30s", 90 * time.Second},
		{"90", 90 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"0", defaultTimeout},
		{"-5s", defaultTimeout},
		{"soon", defaultTimeout},
	}

	for _, tt := range tests {
		if got := parseTimeout(tt.input); got != tt.want {
			t.Errorf("parseTimeout(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to "".
	os.Unsetenv(envDBPath)
	t.Setenv(envListenAddr, ":7000")

	path := filepath.Join(t.TempDir(), ".env")
	content := "TEMPO_DB_PATH=/data/dotenv.db\nTEMPO_LISTEN_ADDR=:1111\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	cfg := Load()
	if cfg.DBPath != "/data/dotenv.db" {
		t.Errorf("DBPath = %q, want value from .env", cfg.DBPath)
	}
	if cfg.ListenAddr != ":7000" {
		t.Errorf("ListenAddr = %q, existing environment must win over .env", cfg.ListenAddr)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadDotEnv on missing file = %v, want nil", err)
	}
}

func TestNewLoggerOutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}

	logger.Info("test message", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("logger output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	for _, key := range []string{"time", "level", "msg"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("JSON output missing expected key %q", key)
		}
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}
