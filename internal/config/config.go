package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	MongoURI    string
	RedisURL    string
	JWTSecret   string
	Environment string

	// CORS
	FrontendURL string

	// SendGrid configuration
	SendGridAPIKey string
	FromEmail      string

	// Derived-stats tuning
	ProfileCacheTTL time.Duration // read-through cache validity
	StatsMaxAge     time.Duration // recompute gate for gamification stats

	// Daily goal target shown to clients
	DailyGoalTarget int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		MongoURI:    getEnv("MONGODB_URI", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("FROM_EMAIL", "hello@skillshare.app"),

		ProfileCacheTTL: getDurationEnv("PROFILE_CACHE_TTL", 5*time.Minute),
		StatsMaxAge:     getDurationEnv("STATS_MAX_AGE", time.Hour),

		DailyGoalTarget: getIntEnv("DAILY_GOAL_TARGET", 3),
	}
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
