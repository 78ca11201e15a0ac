// Package config provides configuration loading for the StrayAid engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the coordination engine
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Geo       GeoConfig       `mapstructure:"geo"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	// Enabled false runs the engine on the in-memory store (dev and tests).
	Enabled bool `mapstructure:"enabled"`
}

// DSN returns the postgres connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration for conversation read-state
type RedisConfig struct {
	URL        string `mapstructure:"url"`
	Enabled    bool   `mapstructure:"enabled"`
	MaxRetries int    `mapstructure:"max_retries"`
	PoolSize   int    `mapstructure:"pool_size"`
}

// NATSConfig holds NATS message broker configuration
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Enabled       bool          `mapstructure:"enabled"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	JetStream     bool          `mapstructure:"jetstream"`
}

// DispatchConfig holds dispatch policy settings
type DispatchConfig struct {
	AcceptanceWindow    time.Duration `mapstructure:"acceptance_window"`
	MaxReassignments    int           `mapstructure:"max_reassignments"`
	ResolvedGracePeriod time.Duration `mapstructure:"resolved_grace_period"`
}

// SchedulerConfig holds background sweep intervals
type SchedulerConfig struct {
	RetriageInterval time.Duration `mapstructure:"retriage_interval"`
	CloseInterval    time.Duration `mapstructure:"close_interval"`
}

// RegistryConfig holds responder directory settings
type RegistryConfig struct {
	URL             string        `mapstructure:"url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
}

// GeoConfig holds geocoding service settings
type GeoConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds identity-provider token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// NotifyConfig holds notification fan-out settings
type NotifyConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SinksFile string `mapstructure:"sinks_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "strayaid")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "strayaid")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.enabled", true)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("nats.url", "nats://nats:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.jetstream", true)

	v.SetDefault("dispatch.acceptance_window", "5m")
	v.SetDefault("dispatch.max_reassignments", 3)
	v.SetDefault("dispatch.resolved_grace_period", "24h")

	v.SetDefault("scheduler.retriage_interval", "2m")
	v.SetDefault("scheduler.close_interval", "15m")

	v.SetDefault("registry.url", "http://localhost:8081")
	v.SetDefault("registry.refresh_interval", "1m")
	v.SetDefault("registry.fetch_timeout", "5s")

	v.SetDefault("geo.url", "http://localhost:8082")
	v.SetDefault("geo.timeout", "3s")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.sinks_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/strayaid")
	}

	// Environment variables override (STRAYAID_SERVER_PORT, etc.)
	v.SetEnvPrefix("STRAYAID")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config - ignore file not found for defaults
	if err := v.ReadInConfig(); err != nil {
		// Only fail if a specific config path was given
		if configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Otherwise use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
