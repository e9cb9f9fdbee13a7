package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. It is loaded once in main and
// passed by reference into the dependency graph; nothing mutates it after
// load.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	LLM           LLMConfig
	Routing       RoutingConfig
	Observability ObservabilityConfig

	CommandCatalogPath string
}

type ServerConfig struct {
	Addr               string
	RateLimitPerSecond int
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type LLMConfig struct {
	GeminiAPIKey string
}

type RoutingConfig struct {
	OSRMBaseURL string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Load reads configuration from the environment, optionally hydrated from a
// local .env file (ignored when absent).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:               getEnv("SERVER_ADDR", ":8080"),
			RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "smarttravel"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		LLM: LLMConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Routing: RoutingConfig{
			OSRMBaseURL: getEnv("OSRM_BASE_URL", "https://router.project-osrm.org"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		},
		CommandCatalogPath: getEnv("COMMAND_CATALOG_PATH", "config/commands.json"),
	}

	if cfg.LLM.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
