package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. The Klaviyo endpoint
// and API revision are explicit values here rather than constants in the
// client so tests and staging can substitute them.
type Config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	KlaviyoEndpoint string
	KlaviyoRevision string
	ForwardTimeout  time.Duration
	TenantCacheTTL  time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Load reads configuration from the environment, picking up a local .env
// file first if one exists.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	dbURL := getEnv("DATABASE_URL", "")
	redisURL := getEnv("REDIS_URL", "")

	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     dbURL,
		RedisURL:        redisURL,
		KlaviyoEndpoint: getEnv("KLAVIYO_ENDPOINT", "https://a.klaviyo.com/api/events/"),
		KlaviyoRevision: getEnv("KLAVIYO_REVISION", "2024-10-15"),
		ForwardTimeout:  getEnvDuration("FORWARD_TIMEOUT", 10*time.Second),
		TenantCacheTTL:  getEnvDuration("TENANT_CACHE_TTL", 5*time.Minute),
		BreakerFailures: getEnvInt("BREAKER_FAILURES", 5),
		BreakerCooldown: getEnvDuration("BREAKER_COOLDOWN", 30*time.Second),
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
