// Package config centralises runtime configuration for the fitdaily CLI.
package config

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config captures runtime configuration values. Load fills it from the
// environment; the CLI overrides individual fields with flags.
type Config struct {
	DataDir       string // Google Fit JSON export directory.
	ActivitiesDir string // TCX / FIT workout files; optional.
	OutDir        string
	UserName      string
	Timezone      string // Reference zone timestamps are converted into before being made naive.
	Format        string // parquet or csv.
	StorePath     string // SQLite metrics store; empty disables persistence.
	TieBreak      string // keep-max or keep-all.
	LogLevel      string
	Overwrite     bool
}

// Load reads FITDAILY_* environment variables into Config, applying defaults.
func Load() Config {
	return Config{
		DataDir:       getEnv("FITDAILY_DATA_DIR", "data"),
		ActivitiesDir: getEnv("FITDAILY_ACTIVITIES_DIR", ""),
		OutDir:        getEnv("FITDAILY_OUT_DIR", "out"),
		UserName:      getEnv("FITDAILY_USER", "user"),
		Timezone:      getEnv("FITDAILY_TIMEZONE", "Asia/Kolkata"),
		Format:        getEnv("FITDAILY_FORMAT", "parquet"),
		StorePath:     getEnv("FITDAILY_DB", ""),
		TieBreak:      getEnv("FITDAILY_TIE_BREAK", "keep-max"),
		LogLevel:      getEnv("FITDAILY_LOG_LEVEL", "info"),
		Overwrite:     getBoolEnv("FITDAILY_OVERWRITE", false),
	}
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
