package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultDataDir = ".oauthbff"
	ConfigFileName = "oauthbff.json"
)

// LoadFromFile loads configuration from a specific file
func LoadFromFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load loads configuration from file, environment, and defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	setupViper()

	configPath := viper.GetString("config")
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if found, path, err := findAndLoadConfigFile(cfg); err != nil && found {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	applyViperOverrides(cfg)

	if err := finalize(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// finalize fills derived defaults and validates the assembled config.
func finalize(cfg *Config) error {
	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, DefaultDataDir)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	if cfg.EnvPrefix == "" {
		cfg.EnvPrefix = DefaultEnvPrefix
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func setupViper() {
	viper.SetEnvPrefix("OAUTHBFF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// applyViperOverrides applies flag/env bound process-level settings on top of
// whatever the config file provided.
func applyViperOverrides(cfg *Config) {
	if v := viper.GetString("listen"); v != "" {
		cfg.Listen = v
	}
	if v := viper.GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := viper.GetString("env-prefix"); v != "" {
		cfg.EnvPrefix = v
	}
	if v := viper.GetString("api-key"); v != "" {
		cfg.APIKey = v
	}
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return nil
}

// findAndLoadConfigFile probes common locations for a config file. The
// returned bool reports whether a file was found, regardless of load success.
func findAndLoadConfigFile(cfg *Config) (bool, string, error) {
	var candidates []string

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ConfigFileName))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, DefaultDataDir, ConfigFileName))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := loadConfigFile(path, cfg); err != nil {
			return true, path, err
		}
		return true, path, nil
	}

	return false, "", nil
}
