// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to run.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// DBPath is the SQLite database file path.
	DBPath string

	// JWTSecret signs session tokens.
	JWTSecret string

	// TokenTTL is how long session tokens stay valid.
	TokenTTL time.Duration

	// AllowedOrigins are the CORS origins. "*" allows everything.
	AllowedOrigins []string

	// GeminiAPIKey enables the AI chat assistant when set.
	GeminiAPIKey string

	// GeminiModel is the Gemini model name used by the assistant.
	GeminiModel string

	// SMTP settings for debt reminder emails. Reminders are disabled
	// unless host and sender are both set.
	SMTPHost  string
	SMTPPort  int
	SMTPEmail string
	SMTPPass  string

	// ReminderCron is the cron spec for the debt reminder job.
	ReminderCron string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:           getEnv("ADDR", ":8080"),
		DBPath:         getEnv("DB_PATH", "./data/splittab.db"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		TokenTTL:       getDuration("TOKEN_TTL", 168*time.Hour),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getInt("SMTP_PORT", 587),
		SMTPEmail:      getEnv("SMTP_EMAIL", ""),
		SMTPPass:       getEnv("SMTP_PASSWORD", ""),
		ReminderCron:   getEnv("REMINDER_CRON", "0 0 * * *"),
	}
}

// ReminderEnabled reports whether debt reminder emails can be sent.
func (c Config) ReminderEnabled() bool {
	return c.SMTPHost != "" && c.SMTPEmail != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
