package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PersistResults   bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	MarketFile     string
	RequestTimeout time.Duration
	PageDelay      time.Duration
	BatchDelay     time.Duration
	HTTPRetries    int
	MaxResults     int
	MaxRetries     int

	LogLevel  string
	LogFormat string
	OutputDir string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "discovery"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "discovery"),
		PostgresDB:       getEnv("POSTGRES_DB", "price_discovery"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PersistResults:   getEnvBool("PERSIST_RESULTS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_HOURS", 24)) * time.Hour,

		MarketFile:     getEnv("MARKET_FILE", ""),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 30000)) * time.Millisecond,
		PageDelay:      time.Duration(getEnvInt("PAGE_DELAY_MS", 300)) * time.Millisecond,
		BatchDelay:     time.Duration(getEnvInt("BATCH_DELAY_MS", 300)) * time.Millisecond,
		HTTPRetries:    getEnvInt("HTTP_RETRIES", 0),
		MaxResults:     getEnvInt("MAX_RESULTS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 5),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		OutputDir: getEnv("OUTPUT_DIR", "./output"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// CacheEnabled reports whether a Redis result cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
