package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath         string
	OutputDir      string
	JournalEnabled bool
	LogLevel       string
	TraceStdout    bool

	RagDir         string
	RagSheet       string
	RagNameColumn  string
	RagPriceColumn string
	RagCodeColumn  string

	NormalizeFoldWidth bool

	YakkaBaseURL       string
	YakkaTimeoutMs     int
	YakkaMinIntervalMs int
	YakkaMaxAttempts   int
	YakkaUserAgent     string
	YakkaPriceSuffixes string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:         getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir:      getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		JournalEnabled: getEnvBool("JOURNAL_ENABLED", true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TraceStdout:    getEnvBool("TRACE_STDOUT", false),

		RagDir:         getEnv("RAG_DIR", filepath.Join(cwd, "rag")),
		RagSheet:       getEnv("RAG_SHEET", ""),
		RagNameColumn:  getEnv("RAG_NAME_COLUMN", "品名"),
		RagPriceColumn: getEnv("RAG_PRICE_COLUMN", "薬価"),
		RagCodeColumn:  getEnv("RAG_CODE_COLUMN", "YJコード"),

		NormalizeFoldWidth: getEnvBool("NORMALIZE_FOLD_WIDTH", false),

		YakkaBaseURL:       getEnv("YAKKA_BASE_URL", "https://yakka-search.com"),
		YakkaTimeoutMs:     getEnvInt("YAKKA_TIMEOUT_MS", 15000),
		YakkaMinIntervalMs: getEnvInt("YAKKA_MIN_INTERVAL_MS", 500),
		YakkaMaxAttempts:   getEnvInt("YAKKA_MAX_ATTEMPTS", 3),
		YakkaUserAgent:     getEnv("YAKKA_USER_AGENT", "excel2web/0.1 (+https://github.com/TAKE4T/excel2web)"),
		YakkaPriceSuffixes: getEnv("YAKKA_PRICE_SUFFIXES", "円"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
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

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
