package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values loaded from TOML.
const (
	EnvAPIURL   = "LINKGUARD_API_URL"
	EnvDBPath   = "LINKGUARD_DB_PATH"
	EnvLogLevel = "LINKGUARD_LOG_LEVEL"
	EnvTimeout  = "LINKGUARD_API_TIMEOUT"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Links    LinksConfig    `toml:"links"`
	Logging  LoggingConfig  `toml:"logging"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout as a [time.Duration], defaulting to 30s.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LinksConfig tunes bulk link operations.
type LinksConfig struct {
	DeleteWorkers int     `toml:"delete_workers"`
	DeleteRate    float64 `toml:"delete_rate"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level      string `toml:"level"`
	TUILogPath string `toml:"tui_log_path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values from the environment.
//
// A .env file in the working directory is loaded first when present; variables already set in the process win.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvTimeout, v)
		}
		c.API.TimeoutSeconds = secs
	}
	return nil
}
