package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/neexbeast/destinations/internal/destination"
)

// Config holds the settings shared by every command.
type Config struct {
	APIBaseURL      string
	Port            string
	LogLevel        slog.Level
	RateLimitPerMin int
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	rate, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MIN", "60"))
	if err != nil || rate <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_MIN must be a positive integer, got %q", os.Getenv("RATE_LIMIT_PER_MIN"))
	}

	return Config{
		APIBaseURL:      getEnv("DESTINATIONS_API_URL", destination.DefaultBaseURL),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        level,
		RateLimitPerMin: rate,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("parsing LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
