package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"selfscan/internal/config"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(true, "/etc/selfscan/config.yaml", "/home/user/.kube/config")
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/etc/selfscan/config.yaml", cfg.ConfigPath)
	assert.Equal(t, "/home/user/.kube/config", cfg.Kubeconfig)
	assert.Nil(t, cfg.Controller)
}

func TestConfig_ApplyOverrides(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		namespace string
		debug     bool
		logFormat string
	}{
		{
			name:      "no overrides keep the file values",
			cfg:       Config{},
			namespace: config.DefaultNamespace,
			debug:     false,
			logFormat: "text",
		},
		{
			name:      "all overrides",
			cfg:       Config{Debug: true, Namespace: "security", LogFormat: "json"},
			namespace: "security",
			debug:     true,
			logFormat: "json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controllerCfg := config.GetDefaultConfig()
			tt.cfg.Controller = &controllerCfg
			tt.cfg.applyOverrides()

			assert.Equal(t, tt.namespace, controllerCfg.Namespace)
			assert.Equal(t, tt.debug, controllerCfg.Debug)
			assert.Equal(t, tt.logFormat, controllerCfg.LogFormat)
		})
	}
}

func TestConfig_ApplyOverridesWithoutController(t *testing.T) {
	cfg := &Config{Namespace: "security"}
	assert.NotPanics(t, cfg.applyOverrides)
}
