// Package config loads the service configuration.
//
// Sources, in order:
//  1. a .env file in the working directory (never overrides the real environment)
//  2. a YAML file, with ${VAR} references expanded from the environment
//  3. environment variables alone, when the YAML file cannot be read
//
// Example usage:
//
//	cfg := config.LoadOrEnvWithPath("config.yaml")
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//	window := cfg.Detection.TimeWindowHours
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Detection     DetectionConfig     `yaml:"detection"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DetectionConfig holds duplicate detection settings.
// Thresholds and weights are fixed in the duplicate package.
type DetectionConfig struct {
	TimeWindowHours float64 `yaml:"time_window_hours"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Environment variables read by LoadFromEnv
const (
	EnvDatabasePath   = "LEDGER_DB_PATH"
	EnvPort           = "PORT"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"
	EnvWindowHours    = "DUPLICATE_WINDOW_HOURS"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
)

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Storage: StorageConfig{DatabasePath: "ledger.db"},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Detection: DetectionConfig{TimeWindowHours: 24},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.fillDefaults()
	return &cfg, nil
}

// LoadFromEnv builds the configuration from environment variables only.
// Unset or unparsable values keep their defaults.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	cfg := Default()
	lookupString(EnvDatabasePath, &cfg.Storage.DatabasePath)
	lookupInt(EnvPort, &cfg.Server.Port)
	lookupList(EnvAllowedOrigins, &cfg.Server.AllowedOrigins)
	lookupFloat(EnvWindowHours, &cfg.Detection.TimeWindowHours)
	lookupString(EnvLogLevel, &cfg.Observability.Logging.Level)
	lookupString(EnvLogFormat, &cfg.Observability.Logging.Format)

	cfg.fillDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate reports every setting that cannot be used
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Detection.TimeWindowHours <= 0 {
		errs = append(errs, fmt.Errorf("detection.time_window_hours must be positive, got %g", c.Detection.TimeWindowHours))
	}
	switch strings.ToLower(c.Observability.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("observability.logging.format %q must be text or json", c.Observability.Logging.Format))
	}

	return errors.Join(errs...)
}

// fillDefaults sets whatever a partial YAML file or environment left empty
func (c *Config) fillDefaults() {
	def := Default()

	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = def.Storage.DatabasePath
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = def.Server.AllowedOrigins
	}
	if c.Detection.TimeWindowHours == 0 {
		c.Detection.TimeWindowHours = def.Detection.TimeWindowHours
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = def.Observability.Logging.Level
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = def.Observability.Logging.Format
	}
}

func lookupString(key string, dst *string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*dst = val
	}
}

func lookupInt(key string, dst *int) {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = n
	}
}

func lookupFloat(key string, dst *float64) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		*dst = f
	}
}

// lookupList reads a comma-separated list, ignoring blank items
func lookupList(key string, dst *[]string) {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		*dst = items
	}
}
