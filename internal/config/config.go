package config

import (
	"errors"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	MongoURL            string
	MongoDatabase       string
	MongoCollection     string
	MongoConnectTimeout time.Duration

	// QueryTimeout bounds a single report query; expiry is a store fault.
	QueryTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	connectTimeout, err := parsePositiveDuration("MONGO_CONNECT_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	queryTimeout, err := parsePositiveDuration("QUERY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MongoURL:            strings.TrimSpace(sharedcfg.EnvOrDefault("MONGO_URL", "mongodb://localhost:27017/")),
		MongoDatabase:       sharedcfg.EnvOrDefault("MONGO_DATABASE", "intel_db"),
		MongoCollection:     sharedcfg.EnvOrDefault("MONGO_COLLECTION", "reports"),
		MongoConnectTimeout: connectTimeout,
		QueryTimeout:        queryTimeout,
		HTTPAddr:            sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
	}

	if cfg.MongoURL == "" {
		return nil, errors.New("MONGO_URL is required")
	}
	if !strings.HasPrefix(cfg.MongoURL, "mongodb://") && !strings.HasPrefix(cfg.MongoURL, "mongodb+srv://") {
		return nil, errors.New("MONGO_URL must use the mongodb:// or mongodb+srv:// scheme")
	}
	if cfg.MongoDatabase == "" {
		return nil, errors.New("MONGO_DATABASE is required")
	}
	if cfg.MongoCollection == "" {
		return nil, errors.New("MONGO_COLLECTION is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}
