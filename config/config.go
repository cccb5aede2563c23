package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port string
	Env  string

	// Database
	DBDriver    string // postgres | sqlite
	DatabaseURL string
	SQLitePath  string

	// Sessions
	JWTSecret  string
	SessionTTL time.Duration

	AdminAPIKey string

	// Device-local storage backend: db | redis | memory
	StorageDriver string
	RedisAddr     string

	KafkaBrokers []string

	// Payments
	PaymentMode          string // sandbox | live
	PaymentWebhookSecret string

	SimulatedLatency time.Duration
	DemoMode         bool
	CORSOrigins      []string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("APP_ENV", "development"),
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		SQLitePath:           getEnv("SQLITE_PATH", "learnhub.db"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AdminAPIKey:          os.Getenv("ADMIN_API_KEY"),
		StorageDriver:        strings.ToLower(getEnv("STORAGE_DRIVER", "db")),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		PaymentMode:          strings.ToLower(getEnv("PAYMENT_MODE", "sandbox")),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),
	}
	cfg.DatabaseURL = databaseURL()

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SimulatedLatency, err = getDuration("SIMULATED_LATENCY", 0); err != nil {
		return nil, err
	}
	if cfg.DemoMode, err = getBool("DEMO_MODE", true); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	switch cfg.StorageDriver {
	case "db", "redis", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	switch cfg.PaymentMode {
	case "sandbox", "dev", "live":
	default:
		return nil, fmt.Errorf("unsupported PAYMENT_MODE %q", cfg.PaymentMode)
	}
	if !cfg.Sandbox() && cfg.PaymentWebhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be set when PAYMENT_MODE is %s", cfg.PaymentMode)
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set")
		}
		cfg.JWTSecret = "learnhub-dev-secret"
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Sandbox reports whether payment webhooks skip signature verification.
func (c *Config) Sandbox() bool {
	return c.PaymentMode == "sandbox" || c.PaymentMode == "dev"
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "learnhub"),
		getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
