// Package config builds runtime configuration from environment variables so
// main stays lean. Missing optional values fall back to development defaults;
// the zero URL disables the corresponding subsystem.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "conforma/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	LogLevel      string
}

// PostgresConfig holds the database connection settings.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds connection settings for the result cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ResultTTL    time.Duration
}

// KafkaConfig holds settings for the audit event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	// Group is the consumer group materializing the audit stream.
	Group string
}

// CatalogConfig carries reference identifiers the rule catalog matches
// against. Defaults reflect the current released part numbers; overrides let
// operations track supersessions without a deploy.
type CatalogConfig struct {
	CANTerminationWithID string
	CANTerminationWoID   string
	CameraElementID      string
}

// Config is the root configuration for the service.
type Config struct {
	Server   Server
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Catalog  CatalogConfig
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("CONFORMA_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			LogLevel:      envOr("LOG_LEVEL", "info"),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxOpenConns:    envIntOr("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envIntOr("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDurationOr("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ResultTTL:    envDurationOr("REDIS_RESULT_TTL", 15*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: pkgstrings.DedupeAndTrim(strings.Split(os.Getenv("KAFKA_BROKERS"), ",")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "conforma.audit.events"),
			Group:   envOr("KAFKA_AUDIT_GROUP", "conforma-audit-materializer"),
		},
		Catalog: CatalogConfig{
			CANTerminationWithID: envOr("CATALOG_CAN_TERMINATION_WITH_ID", "K218450H002"),
			CANTerminationWoID:   envOr("CATALOG_CAN_TERMINATION_WO_ID", "K188333H002"),
			CameraElementID:      envOr("CATALOG_CAMERA_ELEMENT_ID", "K188332H000"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
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

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
