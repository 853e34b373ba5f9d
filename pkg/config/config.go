package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// In-flight guard backends.
const (
	InFlightMemory = "memory"
	InFlightRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream   UpstreamConfig
	Session    SessionConfig
	Enrollment EnrollmentConfig
	InFlight   InFlightConfig
	Catalog    CatalogConfig
	Audit      AuditConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
}

// UpstreamConfig points the gateway at the LMS REST API.
type UpstreamConfig struct {
	BaseURL         string
	Timeout         time.Duration
	PublicEndpoints []string
}

// SessionConfig bounds the per-token workspace cache.
type SessionConfig struct {
	TTL         time.Duration
	MaxSessions int
}

// EnrollmentConfig carries enrollment policy switches.
type EnrollmentConfig struct {
	RequireLecturer bool
}

// InFlightConfig selects how duplicate intents are suppressed.
type InFlightConfig struct {
	Backend string
	TTL     time.Duration
}

// CatalogConfig governs the shared department catalog cache.
type CatalogConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// AuditConfig toggles persistence of intent audit records.
type AuditConfig struct {
	Enabled   bool
	Workers   int
	QueueSize int
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:         strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout:         parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
		PublicEndpoints: splitAndTrim(v.GetString("UPSTREAM_PUBLIC_ENDPOINTS")),
	}

	maxSessions := v.GetInt("SESSION_MAX")
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	cfg.Session = SessionConfig{
		TTL:         parseDuration(v.GetString("SESSION_TTL"), 30*time.Minute),
		MaxSessions: maxSessions,
	}

	cfg.Enrollment = EnrollmentConfig{
		RequireLecturer: v.GetBool("ENROLLMENT_REQUIRE_LECTURER"),
	}

	backend := strings.ToLower(v.GetString("INFLIGHT_BACKEND"))
	if backend != InFlightRedis {
		backend = InFlightMemory
	}
	cfg.InFlight = InFlightConfig{
		Backend: backend,
		TTL:     parseDuration(v.GetString("INFLIGHT_TTL"), 30*time.Second),
	}

	cfg.Catalog = CatalogConfig{
		Enabled:  v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL: parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Audit = AuditConfig{
		Enabled:   v.GetBool("ENABLE_AUDIT"),
		Workers:   v.GetInt("AUDIT_WORKERS"),
		QueueSize: v.GetInt("AUDIT_QUEUE_SIZE"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8081")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("UPSTREAM_PUBLIC_ENDPOINTS", "/auth/register,/auth/login,/auth/sample")

	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_MAX", 1024)

	v.SetDefault("ENROLLMENT_REQUIRE_LECTURER", true)

	v.SetDefault("INFLIGHT_BACKEND", InFlightMemory)
	v.SetDefault("INFLIGHT_TTL", "30s")

	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_AUDIT", false)
	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_QUEUE_SIZE", 256)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
