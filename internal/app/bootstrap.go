package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"selfscan/internal/client"
	"selfscan/internal/config"
	"selfscan/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs the controller.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: load configuration, initialize logging, build clients and services
//  2. Execution phase: load the application definitions and run the orchestrator
//
// Example usage:
//
//	cfg := app.NewConfig(false, "/etc/selfscan/config.yaml", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the configuration, initializes logging and connects
// to the Kubernetes API.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.Controller == nil {
		controllerCfg, err := config.Load(cfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load controller configuration: %w", err)
		}
		cfg.Controller = &controllerCfg
	}
	cfg.applyOverrides()

	initLogging(cfg.Controller)
	logging.Info("Bootstrap", "Starting BlackDuck SelfScan Controller in namespace %s", cfg.Controller.Namespace)

	clients, err := client.NewClients(cfg.Kubeconfig)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to configure Kubernetes clients")
		return nil, fmt.Errorf("failed to configure Kubernetes clients: %w", err)
	}

	return NewApplicationWithClients(cfg, clients)
}

// NewApplicationWithClients builds the application on existing clients.
// cfg.Controller must be set.
func NewApplicationWithClients(cfg *Config, clients *client.Clients) (*Application, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("controller configuration is not loaded")
	}

	services, err := InitializeServices(cfg, clients)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run marks the controller healthy, performs the initial load of the
// application definitions and runs every activity until ctx is cancelled,
// SIGINT or SIGTERM is received, or an activity fails.
//
// A failed initial load is not fatal: the controller starts unhealthy with
// an empty registry and the periodic reload retries.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := a.services
	s.Metrics.SetHealthy(true)

	if err := s.Clients.CheckAccess(ctx, a.config.Controller.Namespace); err != nil {
		logging.Warn("Bootstrap", "Permission check failed: %v", err)
	}

	if err := s.ReloadApplications(ctx); err != nil {
		logging.Error("Bootstrap", err, "Initial load of application definitions failed, starting with an empty registry")
	}

	notify(daemon.SdNotifyReady)
	logging.Info("Bootstrap", "Controller started, watching deployments in all namespaces")

	err := s.Orchestrator.Run(ctx)

	notify(daemon.SdNotifyStopping)
	if err != nil {
		return err
	}
	logging.Info("Bootstrap", "Controller stopped")
	return nil
}

func initLogging(cfg *config.ControllerConfig) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.ParseFormat(cfg.LogFormat), os.Stdout)
}

// notify sends a systemd readiness notification. Outside systemd it does
// nothing.
func notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Debug("Bootstrap", "sd_notify %q failed: %v", state, err)
		return
	}
	if sent {
		logging.Debug("Bootstrap", "Sent sd_notify %q", state)
	}
}
