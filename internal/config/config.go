package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	DB DBConfig

	RedisURL string
	CacheTTL time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel string
	LogFile  string

	RateLimit RateLimitConfig

	Narrative NarrativeConfig

	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL renders the postgres:// form used by the migration driver.
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	TrustProxy        bool // key anonymous callers by X-Forwarded-For
}

type NarrativeConfig struct {
	Mode    string // off, mock, cli, api
	Model   string
	APIKey  string
	CLIPath string
	Timeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "assessiq"),
			Password: getEnv("DB_PASSWORD", "assessiq"),
			Name:     getEnv("DB_NAME", "assessiq"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL:  os.Getenv("REDIS_URL"),
		CacheTTL:  getDuration("CACHE_TTL", 15*time.Minute),
		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getDuration("TOKEN_TTL", 72*time.Hour),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   os.Getenv("LOG_FILE"),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloat("RATE_LIMIT_RPS", 10),
			Burst:             getInt("RATE_LIMIT_BURST", 20),
			TrustProxy:        getBool("TRUST_PROXY", false),
		},
		Narrative: NarrativeConfig{
			Mode:    getEnv("NARRATIVE_MODE", "off"),
			Model:   os.Getenv("ANTHROPIC_MODEL"),
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			CLIPath: getEnv("CLAUDE_CLI_PATH", "claude"),
			Timeout: getDuration("NARRATIVE_TIMEOUT", 30*time.Second),
		},
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "assessiq-dev-signing-key"
	}
	if cfg.Narrative.Mode == "api" && cfg.Narrative.APIKey == "" {
		return nil, fmt.Errorf("NARRATIVE_MODE=api requires ANTHROPIC_API_KEY")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
