package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL     = "http://localhost:3001/api"
	defaultTimeout    = 12 * time.Second
	defaultRate       = 10.0
	defaultDevAddr    = ":3001"
	defaultDevDB      = "croquis-dev.db"
	envFileName       = ".env"
	defaultDevBaseURL = "/api"
)

type Config struct {
	APIURL      string
	Token       string
	EventID     int64
	HTTPTimeout time.Duration
	Rate        float64
	DebugLog    string

	DevAddr   string
	DevDB     string
	DevSecret string
	DevPrefix string
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load() Config {
	return LoadFrom(envFileName)
}

func LoadFrom(envFiles ...string) Config {
	for _, file := range envFiles {
		// Missing or unreadable files are skipped.
		_ = godotenv.Load(file)
	}

	return Config{
		APIURL:      strings.TrimRight(getEnv("CROQUIS_API_URL", defaultAPIURL), "/"),
		Token:       strings.TrimSpace(os.Getenv("CROQUIS_TOKEN")),
		EventID:     getEnvAsInt64("CROQUIS_EVENT", 0),
		HTTPTimeout: getEnvAsDuration("CROQUIS_HTTP_TIMEOUT", defaultTimeout),
		Rate:        getEnvAsFloat("CROQUIS_RATE", defaultRate),
		DebugLog:    os.Getenv("CROQUIS_DEBUG"),

		DevAddr:   getEnv("CROQUIS_DEV_ADDR", defaultDevAddr),
		DevDB:     getEnv("CROQUIS_DEV_DB", defaultDevDB),
		DevSecret: os.Getenv("CROQUIS_DEV_SECRET"),
		DevPrefix: getEnv("CROQUIS_DEV_PREFIX", defaultDevBaseURL),
	}
}

func getEnv(key, defaultVal string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
