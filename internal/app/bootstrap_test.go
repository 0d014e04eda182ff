package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"selfscan/internal/orchestrator"
)

func TestNewApplicationWithClients_RequiresConfig(t *testing.T) {
	_, err := NewApplicationWithClients(&Config{}, testClients(nil))
	assert.ErrorContains(t, err, "controller configuration is not loaded")
}

func TestNewApplication_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intervals: [not, a, map]\n"), 0o600))

	_, err := NewApplication(NewConfig(false, path, ""))
	assert.ErrorContains(t, err, "failed to load controller configuration")
}

func runApplication(t *testing.T, a *Application) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func allRunning(a *Application) bool {
	for _, st := range a.Services().Orchestrator.Status() {
		if st.State != orchestrator.StateRunning {
			return false
		}
	}
	return true
}

func TestApplication_Run(t *testing.T) {
	a, err := NewApplicationWithClients(testConfig(), testClients(nil, applicationsConfigMap(applicationsDoc)))
	require.NoError(t, err)

	cancel, done := runApplication(t, a)
	require.Eventually(t, func() bool { return allRunning(a) }, 5*time.Second, 10*time.Millisecond)

	s := a.Services()
	assert.True(t, s.Registry.Loaded())
	assert.Equal(t, 1, s.Registry.Len())
	assert.True(t, s.Metrics.Healthy())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestApplication_RunContinuesAfterFailedInitialLoad(t *testing.T) {
	funcs := &interceptor.Funcs{
		Get: func(ctx context.Context, cl ctrlclient.WithWatch, key ctrlclient.ObjectKey, obj ctrlclient.Object, opts ...ctrlclient.GetOption) error {
			return errors.New("connection refused")
		},
	}
	a, err := NewApplicationWithClients(testConfig(), testClients(funcs))
	require.NoError(t, err)

	cancel, done := runApplication(t, a)
	require.Eventually(t, func() bool { return allRunning(a) }, 5*time.Second, 10*time.Millisecond)

	s := a.Services()
	assert.False(t, s.Registry.Loaded())
	assert.Equal(t, 0, s.Registry.Len())
	assert.False(t, s.Metrics.Healthy())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestApplication_RunFailsWhenServerCannotBind(t *testing.T) {
	cfg := testConfig()
	cfg.Controller.Server.MetricsAddr = "127.0.0.1:99999"

	a, err := NewApplicationWithClients(cfg, testClients(nil, applicationsConfigMap(applicationsDoc)))
	require.NoError(t, err)

	_, done := runApplication(t, a)
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), ActivityServer)
		assert.False(t, a.Services().Metrics.Healthy())
	case <-time.After(10 * time.Second):
		t.Fatal("application did not fail")
	}
}
