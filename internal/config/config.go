package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	APIBaseURL      string
	APITimeout      time.Duration
	RedisAddr       string
	BadgeTTL        time.Duration
	SessionTTL      time.Duration
	RedirectDelay   time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LoginURL        string
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		APIBaseURL:      envOrDefault("API_BASE_URL", "http://localhost:5000/api"),
		APITimeout:      envDuration("API_TIMEOUT_SECONDS", 10*time.Second),
		RedisAddr:       envOrDefault("REDIS_ADDR", "localhost:6379"),
		BadgeTTL:        envDuration("BADGE_TTL_SECONDS", 15*time.Minute),
		SessionTTL:      envDuration("SESSION_TTL_SECONDS", 30*time.Minute),
		RedirectDelay:   envDuration("REDIRECT_DELAY_SECONDS", 2*time.Second),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		CORSOrigins:     envList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		LoginURL:        envOrDefault("LOGIN_URL", "/auth/login"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
