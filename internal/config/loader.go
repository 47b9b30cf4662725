package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"orgsync/internal/teamsync"
	"orgsync/pkg/logging"
)

const (
	userConfigDir  = ".config/orgsync"
	configFileName = "orgsync.yaml"

	// EnvToken names the environment variable holding the API token.
	EnvToken = "ORGSYNC_TOKEN"

	// EnvOwner names the environment variable overriding the owner.
	EnvOwner = "ORGSYNC_OWNER"
)

// DefaultConfigPath returns the per-user configuration directory.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// Load reads orgsync.yaml from the given directory. A missing file is an
// error: unlike runtime tuning, an empty team declaration is never a safe
// default to reconcile against.
func Load(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no %s found at %s", configFileName, configPath)
		}
		return Config{}, fmt.Errorf("reading %s: %w", configFilePath, err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", configFilePath, err)
	}
	applyEnv(&config)

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

func defaults() Config {
	return Config{
		UnmanagedTeams: teamsync.UnmanagedIgnore,
	}
}

func applyEnv(config *Config) {
	if owner := os.Getenv(EnvOwner); owner != "" {
		config.Owner = owner
	}
}

// Token reads the API token from the environment.
func Token() string {
	return os.Getenv(EnvToken)
}
