// Package config holds the runtime settings shared by the server and the CLI.
package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/matrix"
	"github.com/warp/allocation-engine/reports"
)

// Config holds all engine configuration.
type Config struct {
	Port           string
	DBPath         string // ":memory:" or a file path
	WeeklyCapacity decimal.Decimal
	WeeksBefore    int
	WeeksAfter     int
	ForecastWeeks  int
	CapacityBasis  reports.CapacityBasis
	LogLevel       slog.Level
}

// DefaultConfig returns a Config with the engine defaults.
func DefaultConfig() Config {
	window := matrix.DefaultWindowConfig()
	rep := reports.DefaultConfig()
	return Config{
		Port:           "8080",
		DBPath:         "allocations.db",
		WeeklyCapacity: generic.DefaultWeeklyCapacity,
		WeeksBefore:    window.WeeksBefore,
		WeeksAfter:     window.WeeksAfter,
		ForecastWeeks:  rep.ForecastWeeks,
		CapacityBasis:  rep.CapacityBasis,
		LogLevel:       slog.LevelInfo,
	}
}

// LoadConfig reads configuration from environment variables, falling back
// to defaults for unset or unparsable values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("ALLOC_ENGINE_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("ALLOC_ENGINE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ALLOC_ENGINE_WEEKLY_CAPACITY"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			cfg.WeeklyCapacity = d
		}
	}
	applyIntEnv(&cfg.WeeksBefore, "ALLOC_ENGINE_WEEKS_BEFORE", 0)
	applyIntEnv(&cfg.WeeksAfter, "ALLOC_ENGINE_WEEKS_AFTER", 0)
	applyIntEnv(&cfg.ForecastWeeks, "ALLOC_ENGINE_FORECAST_WEEKS", 1)
	if v := os.Getenv("ALLOC_ENGINE_CAPACITY_BASIS"); v != "" {
		if b, err := reports.ParseCapacityBasis(v); err == nil {
			cfg.CapacityBasis = b
		}
	}
	if v := os.Getenv("ALLOC_ENGINE_LOG_LEVEL"); v != "" {
		if lvl, ok := ParseLogLevel(v); ok {
			cfg.LogLevel = lvl
		}
	}

	return cfg
}

func applyIntEnv(dst *int, envName string, min int) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return
	}
	*dst = n
}

// ParseLogLevel accepts debug, info, warn and error.
func ParseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}

// Window returns the matrix window settings.
func (c Config) Window() matrix.WindowConfig {
	return matrix.WindowConfig{WeeksBefore: c.WeeksBefore, WeeksAfter: c.WeeksAfter}
}

// Reports returns the report service settings.
func (c Config) Reports() reports.Config {
	return reports.Config{
		WeeklyCapacity: c.WeeklyCapacity,
		ForecastWeeks:  c.ForecastWeeks,
		CapacityBasis:  c.CapacityBasis,
	}
}

// NewLogger builds the engine's structured logger.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
