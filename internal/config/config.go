package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Events  EventsConfig  `yaml:"events"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

// StorageConfig holds staging area configuration. Uploaded payloads are
// spooled here until their session is exported or expires.
type StorageConfig struct {
	StagingPath   string `yaml:"staging_path" envconfig:"STAGING_PATH"`
	MaxUploadSize int64  `yaml:"max_upload_size" envconfig:"MAX_UPLOAD_SIZE"`
}

// SessionConfig holds session lifecycle configuration.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
	MaxEntries    int           `yaml:"max_entries" envconfig:"SESSION_MAX_ENTRIES"`
}

// EventsConfig holds activity-log configuration.
type EventsConfig struct {
	RingSize      int    `yaml:"ring_size" envconfig:"EVENTS_RING_SIZE"`
	SQLitePath    string `yaml:"sqlite_path" envconfig:"EVENTS_SQLITE_PATH"`
	RetentionDays int    `yaml:"retention_days" envconfig:"EVENTS_RETENTION_DAYS"`
}

// Default returns the built-in configuration. Load layers the YAML file
// and then environment variables on top of it, so every field keeps its
// default unless explicitly overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8642,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Storage: StorageConfig{
			StagingPath:   "/data/namer/staging",
			MaxUploadSize: 1 << 30, // 1GB
		},
		Session: SessionConfig{
			TTL:           2 * time.Hour,
			SweepInterval: 5 * time.Minute,
			MaxEntries:    200,
		},
		Events: EventsConfig{
			RingSize:      1000,
			RetentionDays: 30,
		},
	}
}

// Load reads configuration from file and environment variables.
// Environment variables override file values, which override defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set. An empty
// API key is allowed and disables API authentication.
func (c *Config) Validate() error {
	if c.Storage.StagingPath == "" {
		return fmt.Errorf("STAGING_PATH is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.MaxEntries <= 0 {
		return fmt.Errorf("SESSION_MAX_ENTRIES must be positive")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
