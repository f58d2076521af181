// Package config parses server settings from flags with environment fallbacks.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Config captures runtime configuration for the activities server.
type Config struct {
	Addr            string
	Backend         string
	DSN             string
	SQLitePath      string
	RedisAddr       string
	KafkaBrokers    []string // empty disables event publishing
	KafkaTopic      string
	CORSOrigin      string
	Dev             bool
	ShutdownTimeout time.Duration
}

// Load parses args (without the program name). Each flag defaults to its
// ACTIVITIES_* environment variable, then to a local development value.
func Load(args []string) (Config, error) {
	var (
		cfg     Config
		brokers string
	)
	fs := flag.NewFlagSet("activities-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", getEnv("ACTIVITIES_ADDR", ":5000"), "listen address")
	fs.StringVar(&cfg.Backend, "backend", getEnv("ACTIVITIES_BACKEND", BackendSQLite), "storage backend: postgres, sqlite or redis")
	fs.StringVar(&cfg.DSN, "dsn", getEnv("ACTIVITIES_DSN", ""), "PostgreSQL DSN")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", getEnv("ACTIVITIES_SQLITE_PATH", "activities.db"), "SQLite database file")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("ACTIVITIES_REDIS_ADDR", "localhost:6379"), "Redis address")
	fs.StringVar(&brokers, "kafka-brokers", getEnv("ACTIVITIES_KAFKA_BROKERS", ""), "comma separated Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", getEnv("ACTIVITIES_KAFKA_TOPIC", "activity_events"), "Kafka topic for change events")
	fs.StringVar(&cfg.CORSOrigin, "cors-origin", getEnv("ACTIVITIES_CORS_ORIGIN", "http://localhost:3000"), "allowed browser origin")
	fs.BoolVar(&cfg.Dev, "dev", getBoolEnv("ACTIVITIES_DEV", false), "development logging")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", getDurationEnv("ACTIVITIES_SHUTDOWN_TIMEOUT", 5*time.Second), "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.KafkaBrokers = splitAndTrim(brokers)
	return cfg, cfg.Validate()
}

// Validate checks backend-specific requirements.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DSN == "" {
			return errors.New("config: postgres backend requires -dsn")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: sqlite backend requires -sqlite-path")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("config: redis backend requires -redis-addr")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("config: kafka brokers set without topic")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
