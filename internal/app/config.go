package app

import (
	"selfscan/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Custom configuration file (optional)
	// When empty, the built-in defaults are used
	ConfigPath string

	// Kubeconfig overrides in-cluster and KUBECONFIG discovery
	Kubeconfig string

	// Command line overrides applied on top of the configuration file
	Namespace string
	LogFormat string

	// Controller configuration, loaded during bootstrap when nil
	Controller *config.ControllerConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, kubeconfig string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Kubeconfig: kubeconfig,
	}
}

// applyOverrides copies the command line overrides onto the controller
// configuration.
func (c *Config) applyOverrides() {
	if c.Controller == nil {
		return
	}
	if c.Namespace != "" {
		c.Controller.Namespace = c.Namespace
	}
	if c.Debug {
		c.Controller.Debug = true
	}
	if c.LogFormat != "" {
		c.Controller.LogFormat = c.LogFormat
	}
}
