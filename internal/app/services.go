package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	"selfscan/internal/client"
	"selfscan/internal/config"
	"selfscan/internal/events"
	"selfscan/internal/jobs"
	"selfscan/internal/metrics"
	"selfscan/internal/orchestrator"
	"selfscan/internal/reconciler"
	"selfscan/internal/registry"
	"selfscan/internal/scanjob"
	"selfscan/internal/server"
	"selfscan/internal/watcher"
	"selfscan/pkg/logging"
)

// Activity names as reported by the orchestrator.
const (
	ActivityWatch       = "deployment-watch"
	ActivityCleanup     = "job-cleanup"
	ActivityMonitor     = "job-monitor"
	ActivityReload      = "config-reload"
	ActivityServer      = "http-server"
	ActivityFileWatcher = "file-watcher"
)

// Services holds all initialized components of the controller.
//
// The registry and the metrics are the only state shared between
// activities: the registry is swapped atomically on reload and the metrics
// are last-write-wins.
type Services struct {
	Clients  *client.Clients
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Registry   *registry.Registry
	Builder    *scanjob.Builder
	Events     *events.EventGenerator
	Reconciler *reconciler.Reconciler
	Watcher    *watcher.Watcher
	Tracker    *jobs.Tracker
	Server     *server.Server

	Orchestrator *orchestrator.Orchestrator
}

// InitializeServices creates every component and registers the activities
// with the orchestrator.
//
// Initialization Sequence:
//  1. Metrics on a dedicated Prometheus registry (plus Go and process collectors)
//  2. Application registry over the configured source
//  3. Job builder, event generator and reconciler
//  4. Deployment watcher, job tracker and HTTP server
//  5. Orchestrator activities
func InitializeServices(cfg *Config, clients *client.Clients) (*Services, error) {
	controllerCfg := cfg.Controller

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	source, err := NewApplicationsSource(*controllerCfg, clients.Client)
	if err != nil {
		return nil, err
	}
	reg := registry.New(source)

	builder, err := scanjob.NewBuilder(scanjob.OptionsFromConfig(*controllerCfg), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan job builder: %w", err)
	}

	eventGenerator := events.NewEventGenerator(clients.Client, events.DefaultComponent, nil)
	rec := reconciler.New(reg, builder, clients.Client, m, eventGenerator)

	intervals := controllerCfg.Intervals
	w := watcher.New(clients.Clientset, rec, m, watcher.Options{
		Timeout:    intervals.WatchTimeout,
		RetryDelay: intervals.WatchRetryDelay,
	})
	tracker := jobs.NewTracker(clients.Client, controllerCfg.Namespace, intervals.JobRetention, nil, m)
	srv := server.New(controllerCfg.Server, promRegistry, m, reg.Loaded)

	s := &Services{
		Clients:    clients,
		Metrics:    m,
		Gatherer:   promRegistry,
		Registry:   reg,
		Builder:    builder,
		Events:     eventGenerator,
		Reconciler: rec,
		Watcher:    w,
		Tracker:    tracker,
		Server:     srv,
	}

	orch := orchestrator.New(m,
		orchestrator.Activity{Name: ActivityWatch, Run: w.Run},
		orchestrator.Periodic(ActivityCleanup, intervals.SweepInterval, intervals.ActivityRetryDelay, nil,
			func(ctx context.Context) error {
				_, err := tracker.Sweep(ctx)
				return err
			}),
		orchestrator.Periodic(ActivityMonitor, intervals.MonitorInterval, intervals.ActivityRetryDelay, nil,
			func(ctx context.Context) error {
				_, err := tracker.CountActive(ctx)
				return err
			}),
		orchestrator.Periodic(ActivityReload, intervals.ReloadInterval, intervals.ActivityRetryDelay, nil,
			s.scheduledReload),
		orchestrator.Activity{Name: ActivityServer, Run: srv.Start},
	)

	apps := controllerCfg.Applications
	if apps.Source == config.SourceFile && apps.WatchFile {
		fw := registry.NewFileWatcher(apps.FilePath, 0, s.ReloadApplications)
		orch.Add(orchestrator.Activity{Name: ActivityFileWatcher, Run: fw.Run})
	}
	s.Orchestrator = orch

	logging.Info("Services", "Initialized controller services (applications from %s)", source)
	return s, nil
}

// ReloadApplications reloads the application registry. A failure keeps the
// previous definitions and marks the controller unhealthy.
func (s *Services) ReloadApplications(ctx context.Context) error {
	if err := s.Registry.Reload(ctx); err != nil {
		s.Metrics.SetHealthy(false)
		return err
	}
	return nil
}

// scheduledReload is the periodic reload. A failure is logged and left to
// the next scheduled run instead of the activity retry delay.
func (s *Services) scheduledReload(ctx context.Context) error {
	if err := s.ReloadApplications(ctx); err != nil && ctx.Err() == nil {
		logging.Error("Services", err, "Failed to reload application definitions, keeping %d loaded", s.Registry.Len())
	}
	return nil
}

// NewApplicationsSource returns the registry source selected by cfg.
func NewApplicationsSource(cfg config.ControllerConfig, reader ctrlclient.Reader) (registry.Source, error) {
	apps := cfg.Applications
	switch apps.Source {
	case config.SourceConfigMap, "":
		if reader == nil {
			return nil, fmt.Errorf("configmap source requires a Kubernetes client")
		}
		return &registry.ConfigMapSource{
			Client:    reader,
			Namespace: cfg.Namespace,
			Name:      apps.ConfigMapName,
			Key:       apps.ConfigMapKey,
		}, nil
	case config.SourceFile:
		return &registry.FileSource{Path: apps.FilePath}, nil
	default:
		return nil, fmt.Errorf("unknown applications source %q", apps.Source)
	}
}
