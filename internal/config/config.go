package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

const appName = "todo-tui"

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Expiry   ExpiryConfig   `toml:"expiry"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path" env:"TODO_DB_PATH"`
}

// ExpiryConfig controls the automatic expiry of stale tasks
type ExpiryConfig struct {
	ThresholdDays int `toml:"threshold_days" env:"TODO_EXPIRY_DAYS"`
}

// LogConfig controls where and how verbosely the app logs
type LogConfig struct {
	Path  string `toml:"path" env:"TODO_LOG_PATH"`
	Level string `toml:"level" env:"TODO_LOG_LEVEL"`
}

// Dir returns the directory holding config, database and log by default
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", appName)
}

// Path returns the standard config file location
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(Dir(), "todo.db"),
		},
		Expiry: ExpiryConfig{
			ThresholdDays: 90,
		},
		Log: LogConfig{
			Path:  filepath.Join(Dir(), appName+".log"),
			Level: "info",
		},
	}
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads configuration from a specific path, then applies
// environment overrides
func LoadFrom(configPath string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// No config file, keep defaults
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
	if cfg.Expiry.ThresholdDays <= 0 {
		cfg.Expiry.ThresholdDays = 90
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
