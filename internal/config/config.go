package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Host string
	Port string
	Env  string

	// Telegram
	TelegramToken string // bot token for the Bot API
	WebhookSecret string // secret_token the webhook was registered with

	// Backend
	BackendURL    string
	BackendSecret string

	// Storage
	DatabaseURL string // Postgres; SQLite is used when empty
	DBPath      string // SQLite file path
	RedisURL    string

	// Optional expiry for pending join requests; zero keeps them forever.
	PendingTTL time.Duration

	// Optional TLS (Telegram requires HTTPS for webhooks)
	CertFile string
	KeyFile  string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Host:          os.Getenv("HOST"),
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		TelegramToken: os.Getenv("TG_BOT_TOKEN"),
		WebhookSecret: os.Getenv("TG_SECRET_TOKEN"),
		BackendURL:    os.Getenv("BACKEND_URL"),
		BackendSecret: os.Getenv("BACKEND_SECRET_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBPath:        os.Getenv("DB_PATH"),
		RedisURL:      os.Getenv("REDIS_URL"),
		CertFile:      os.Getenv("CERT_FILE"),
		KeyFile:       os.Getenv("PKEY_FILE"),
	}

	if ttl := os.Getenv("PENDING_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			panic("PENDING_TTL is not a valid duration: " + ttl)
		}
		cfg.PendingTTL = d
	}

	// Secrets and upstream coordinates are non-negotiable in production
	if cfg.Env == "production" {
		for key, val := range map[string]string{
			"TG_BOT_TOKEN":         cfg.TelegramToken,
			"TG_SECRET_TOKEN":      cfg.WebhookSecret,
			"BACKEND_SECRET_TOKEN": cfg.BackendSecret,
			"BACKEND_URL":          cfg.BackendURL,
		} {
			if val == "" {
				panic(key + " is required in production")
			}
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// TLSEnabled reports whether both certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
