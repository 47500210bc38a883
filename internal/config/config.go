package config

import (
	"os"
	"strconv"
)

type Config struct {
	Environment string
	DatabaseURL string
	TablePrefix string
	// Logging
	LogDir      string
	LogMaxFiles int
	// Ingestion
	MaxImageDimension   int
	FileReadConcurrency int
	// Debug flags
	Debug bool // Enables debug-level logging
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Environment:         env,
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		TablePrefix:         getTablePrefix(env),
		LogDir:              getEnv("LOG_DIR", ""),
		LogMaxFiles:         getEnvInt("LOG_MAX_FILES", 10),
		MaxImageDimension:   getEnvInt("MAX_IMAGE_DIMENSION", MaxImageDimension),
		FileReadConcurrency: getEnvInt("FILE_READ_CONCURRENCY", 4),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses a positive integer, falling back on a missing or bad value.
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
