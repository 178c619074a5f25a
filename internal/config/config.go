package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBDriver   string // "postgres" or "sqlite"
	DBPath     string // sqlite only
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DBMaxOpenConns int
	DBMaxIdleConns int

	// StoreTimeout bounds every single store round-trip.
	StoreTimeout time.Duration

	// Optional bearer-token guard on mutating routes
	JWTSecret string

	// Observability
	SentryDSN    string
	LogLevel     string
	LogRetention time.Duration

	// Server
	Port         string
	CORSOrigins  string
	AppEnv       string
	RateLimitMax int
}

func Load() *Config {
	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBPath:     getEnv("DB_PATH", "users.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "users_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns: parseInt(getEnv("DB_MAX_OPEN_CONNS", "20"), 20),
		DBMaxIdleConns: parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),

		StoreTimeout: parseDuration(getEnv("STORE_TIMEOUT", "5s"), 5*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),

		SentryDSN:    getEnv("SENTRY_DSN", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),

		Port:         getEnv("PORT", "5000"),
		CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		AppEnv:       getEnv("APP_ENV", "development"),
		RateLimitMax: parseInt(getEnv("RATE_LIMIT_MAX", "60"), 60),
	}
}

// UsesSQLite reports whether the store is a local SQLite file instead of Postgres.
func (c *Config) UsesSQLite() bool {
	return c.DBDriver == "sqlite"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
