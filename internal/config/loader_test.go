package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	loaded, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	loaded, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := createTempConfigFile(t, t.TempDir(), `
namespace: security
intervals:
  sweepInterval: 30m
  jobRetention: 48h
scanner:
  image: registry.example.com/scanner:1.4
  backoffLimit: 5
`)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "security", loaded.Namespace)
	assert.Equal(t, 30*time.Minute, loaded.Intervals.SweepInterval)
	assert.Equal(t, 48*time.Hour, loaded.Intervals.JobRetention)
	assert.Equal(t, "registry.example.com/scanner:1.4", loaded.Scanner.Image)
	assert.Equal(t, int32(5), loaded.Scanner.BackoffLimit)

	// Untouched fields keep their defaults.
	assert.Equal(t, 5*time.Minute, loaded.Intervals.WatchTimeout)
	assert.Equal(t, DefaultApplicationsConfigMap, loaded.Applications.ConfigMapName)
	assert.Equal(t, "blackduck-creds", loaded.Scanner.CredentialsSecret)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := createTempConfigFile(t, t.TempDir(), "namespace: [unterminated\n")

	_, err := LoadConfig(path)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrorTypeParse, cfgErr.ErrorType)
	assert.Equal(t, path, cfgErr.FilePath)
	assert.NotEmpty(t, cfgErr.Suggestions)
	assert.Contains(t, cfgErr.DetailedError(), "Type: parse")
}

func TestApplyEnvironment(t *testing.T) {
	env := map[string]string{
		EnvNamespace: " scans ",
		EnvDebug:     "true",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := GetDefaultConfig()
	ApplyEnvironment(&cfg, lookup)

	assert.Equal(t, "scans", cfg.Namespace)
	assert.True(t, cfg.Debug)
}

func TestApplyEnvironment_IgnoresInvalidValues(t *testing.T) {
	env := map[string]string{
		EnvNamespace: "   ",
		EnvDebug:     "sometimes",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := GetDefaultConfig()
	ApplyEnvironment(&cfg, lookup)

	assert.Equal(t, DefaultNamespace, cfg.Namespace)
	assert.False(t, cfg.Debug)
}

func TestLoad_ResolvesRelativeApplicationsFile(t *testing.T) {
	dir := t.TempDir()
	path := createTempConfigFile(t, dir, `
applications:
  source: file
  filePath: apps.yaml
`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "apps.yaml"), loaded.Applications.FilePath)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	path := createTempConfigFile(t, t.TempDir(), `
intervals:
  sweepInterval: 0s
`)

	_, err := Load(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, err.Error(), "intervals.sweepInterval")
}
