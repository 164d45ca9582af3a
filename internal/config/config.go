package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all configuration for daicho.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
}

// StorageConfig selects where the ledger's collections are persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	DBFile  string `mapstructure:"db_file"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", filepath.Join(homeDir(), ".daicho", "data"))
	v.SetDefault("storage.db_file", filepath.Join(homeDir(), ".daicho", "daicho.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".daicho"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("DAICHO")
	v.AutomaticEnv()

	_ = v.BindEnv("storage.backend", "DAICHO_STORAGE_BACKEND")
	_ = v.BindEnv("storage.dir", "DAICHO_STORAGE_DIR")
	_ = v.BindEnv("storage.db_file", "DAICHO_STORAGE_DB_FILE")
	_ = v.BindEnv("api.listen_addr", "DAICHO_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "DAICHO_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK; use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir must not be empty")
		}
	case BackendSQLite:
		if c.Storage.DBFile == "" {
			return fmt.Errorf("storage.db_file must not be empty")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q (use file or sqlite)", c.Storage.Backend)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
