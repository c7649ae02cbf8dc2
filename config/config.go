package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	// Storage
	StoreBackend string
	BoltPath     string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Booking
	LockTimeout time.Duration
	SeedCatalog bool

	// Auth collaborator
	UserHeader string

	// Server
	ServerPort     string
	TracingEnabled bool
}

// Load loads configuration from environment variables
func Load() *Config {
	// Try to load .env file (optional for local development)
	_ = godotenv.Load()

	config := &Config{
		StoreBackend: getEnv("STORE_BACKEND", BackendMemory),
		BoltPath:     getEnv("BOLT_PATH", "railway.db"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "railway_booking"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		LockTimeout: getDuration("BOOKING_LOCK_TIMEOUT", 5*time.Second),
		SeedCatalog: getBool("SEED_CATALOG", true),

		UserHeader: getEnv("AUTH_USER_HEADER", "X-User-ID"),

		ServerPort:     getEnv("SERVER_PORT", "5000"),
		TracingEnabled: getBool("TRACING_ENABLED", false),
	}

	switch config.StoreBackend {
	case BackendMemory, BackendBolt, BackendPostgres:
	default:
		log.Printf("WARNING: Unknown STORE_BACKEND: %s (using memory as fallback)\n", config.StoreBackend)
		config.StoreBackend = BackendMemory
	}

	if config.LockTimeout <= 0 {
		log.Println("WARNING: BOOKING_LOCK_TIMEOUT must be positive, using 5s")
		config.LockTimeout = 5 * time.Second
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
