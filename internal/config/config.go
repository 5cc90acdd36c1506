package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultAPIBaseURL is the local development address of the todo API
	DefaultAPIBaseURL = "http://localhost:8000/api/v1"
	// DefaultTokenStore is the slot backend used when none is configured
	DefaultTokenStore = "sqlite"
)

// Config holds application configuration
type Config struct {
	APIBaseURL       string
	TokenStore       string
	TokenStorePath   string
	RedisURL         string
	CheckTokenExpiry bool
	HTTPTimeout      time.Duration
	DebugMode        bool
	OTELEnabled      bool
	OTELEndpoint     string
	DevServer        DevServerConfig
}

// DevServerConfig configures the development API server and its event worker
type DevServerConfig struct {
	Port                     string
	FrontendURL              string
	JWTSecret                string
	AccessTokenExpireMinutes int
	RateLimit                string
	RateLimitStore           string
	DatabaseURL              string
	OpenAIKey                string
	AIModel                  string
	AIBaseURL                string
	RabbitMQURL              string
	WorkerPrefetch           int
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		APIBaseURL:       getEnv("TODO_API_BASE_URL", getEnv("NEXT_PUBLIC_API_BASE_URL", DefaultAPIBaseURL)),
		TokenStore:       strings.ToLower(getEnv("TODO_TOKEN_STORE", DefaultTokenStore)),
		TokenStorePath:   getEnv("TODO_TOKEN_STORE_PATH", defaultTokenStorePath()),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CheckTokenExpiry: getEnvBool("TODO_CHECK_TOKEN_EXPIRY", false),
		HTTPTimeout:      getEnvDuration("TODO_HTTP_TIMEOUT", 0),
		DebugMode:        getEnvBool("TODO_DEBUG", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		DevServer: DevServerConfig{
			Port:                     getEnv("SERVER_PORT", "8000"),
			FrontendURL:              getEnv("FRONTEND_URL", "http://localhost:3000"),
			JWTSecret:                getEnv("JWT_SECRET", "dev-secret-change-me"),
			AccessTokenExpireMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
			RateLimit:                getEnv("RATE_LIMIT", "20-S"),
			RateLimitStore:           strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),
			DatabaseURL:              getEnv("DEV_DATABASE_URL", ""),
			OpenAIKey:                getEnv("OPENAI_API_KEY", ""),
			AIModel:                  getEnv("AI_MODEL", ""),
			AIBaseURL:                getEnv("AI_BASE_URL", ""),
			RabbitMQURL:              getEnv("RABBITMQ_URL", ""),
			WorkerPrefetch:           getEnvInt("WORKER_PREFETCH", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return cfg, nil
}

// Validate checks values that would otherwise fail far from where they were set
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("TODO_API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}

	switch c.TokenStore {
	case "sqlite":
		if c.TokenStorePath == "" {
			return fmt.Errorf("TODO_TOKEN_STORE_PATH is required for the sqlite token store")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis token store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown TODO_TOKEN_STORE %q (must be 'sqlite', 'redis', or 'memory')", c.TokenStore)
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("TODO_HTTP_TIMEOUT must not be negative")
	}

	switch c.DevServer.RateLimitStore {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis rate limit store")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q (must be 'memory' or 'redis')", c.DevServer.RateLimitStore)
	}

	if c.DevServer.WorkerPrefetch <= 0 {
		return fmt.Errorf("WORKER_PREFETCH must be positive, got %d", c.DevServer.WorkerPrefetch)
	}

	return nil
}

// Addr returns the dev server listen address
func (c DevServerConfig) Addr() string {
	return ":" + c.Port
}

// TokenTTL returns the lifetime of tokens issued by the dev server
func (c DevServerConfig) TokenTTL() time.Duration {
	if c.AccessTokenExpireMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func defaultTokenStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "smart-todo", "session.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
