// Package app provides application bootstrap and lifecycle management for
// the selfscan controller.
//
// # Architecture Overview
//
// The package is the wiring layer between configuration and the controller
// components:
//
//  1. **Bootstrap (`bootstrap.go`)**: configuration loading, logging and Kubernetes clients
//  2. **Configuration (`config.go`)**: command line settings and overrides
//  3. **Services (`services.go`)**: component construction and activity registration
//
// # Bootstrap Sequence
//
// NewApplication performs:
//
//   - Loading the controller configuration (defaults, optional file, environment)
//   - Applying command line overrides (--namespace, --debug, --log-format)
//   - Initializing logging for the controller and controller-runtime
//   - Resolving the Kubernetes REST configuration and building the clients
//   - Initializing services
//
// # Activities
//
// Run starts these activities through the orchestrator:
//
//   - deployment-watch: cluster-wide deployment watch feeding the reconciler
//   - job-cleanup: sweep of finished scan jobs past their retention
//   - job-monitor: active scan job count
//   - config-reload: periodic reload of the application definitions
//   - http-server: metrics and health endpoints
//   - file-watcher: reload on change, only for a watched file source
//
// The first activity failure stops the others and is returned from Run.
// SIGINT and SIGTERM stop the controller cleanly. Under systemd, READY=1 is
// sent once the initial load has been attempted and STOPPING=1 on shutdown.
//
// # Health
//
// The controller is marked healthy when Run starts. A failed application
// load (initial or periodic) clears the flag, as does a watch failure; the
// watcher restores it after its next successful iteration.
package app
