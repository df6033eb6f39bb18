package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	Event    EventConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. Setting REDIS_ADDR to the
// empty string disables Redis: the gate feed stays single-instance and
// persona backfill is skipped. Leaving it unset keeps the local default.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds staff token signing settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// GeminiConfig holds the persona generator credential and limits.
// An empty APIKey degrades every generation to the fixed fallback strings;
// it never prevents startup.
type GeminiConfig struct {
	APIKey             string
	Model              string
	TimeoutSeconds     int // budget for the synchronous call during registration
	BackfillTimeoutSec int // budget for the background retry
}

// EventConfig holds event identity and the ticket type enumeration.
type EventConfig struct {
	Tag         string   // embedded in ticket payloads, e.g. "Event Horizon 2024"
	TicketTypes []string // closed enumeration accepted at registration
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	// The original ticket portal read the credential from API_KEY; keep that
	// name as a fallback for GEMINI_API_KEY.
	apiKey := getEnv("GEMINI_API_KEY", os.Getenv("API_KEY"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "eventhorizon"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     lookupEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		Gemini: GeminiConfig{
			APIKey:             apiKey,
			Model:              getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
			TimeoutSeconds:     getEnvInt("GEMINI_TIMEOUT_SEC", 8),
			BackfillTimeoutSec: getEnvInt("GEMINI_BACKFILL_TIMEOUT_SEC", 30),
		},
		Event: EventConfig{
			Tag:         getEnv("EVENT_TAG", "Event Horizon 2024"),
			TicketTypes: splitTrim(getEnv("TICKET_TYPES", "General,VIP,Speaker,Press"), ","),
		},
	}
	return cfg, nil
}

// lookupEnv distinguishes unset from explicitly empty, for variables where
// an empty value switches a subsystem off rather than asking for the default.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
