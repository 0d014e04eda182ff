package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"selfscan/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	// EnvNamespace overrides ControllerConfig.Namespace.
	EnvNamespace = "NAMESPACE"
	// EnvDebug enables debug logging when set to "true".
	EnvDebug = "DEBUG"
)

// LoadConfig loads the controller configuration from configFilePath on top of
// the defaults. An empty path or a missing file yields the defaults.
func LoadConfig(configFilePath string) (ControllerConfig, error) {
	config := GetDefaultConfig()

	if configFilePath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config file found at %s, using defaults", configFilePath)
			return config, nil
		}
		return ControllerConfig{}, NewConfigurationError(configFilePath, ErrorTypeIO,
			"failed to read configuration file", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		// config malformed
		return ControllerConfig{}, NewConfigurationError(configFilePath, ErrorTypeParse,
			"failed to parse configuration file", err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// ApplyEnvironment overlays environment variables onto config. lookup is
// usually os.LookupEnv.
func ApplyEnvironment(config *ControllerConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvNamespace); ok && strings.TrimSpace(v) != "" {
		config.Namespace = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDebug); ok {
		if debug, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			config.Debug = debug
		}
	}
}

// Load is LoadConfig followed by ApplyEnvironment and Validate.
func Load(configFilePath string) (ControllerConfig, error) {
	config, err := LoadConfig(configFilePath)
	if err != nil {
		return ControllerConfig{}, err
	}

	ApplyEnvironment(&config, os.LookupEnv)

	if config.Applications.Source == SourceFile && config.Applications.FilePath != "" && configFilePath != "" &&
		!filepath.IsAbs(config.Applications.FilePath) {
		// Relative application files are resolved against the config file.
		config.Applications.FilePath = filepath.Join(filepath.Dir(configFilePath), config.Applications.FilePath)
	}

	if err := config.Validate(); err != nil {
		return ControllerConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
