// Package logging provides the structured, subsystem-tagged logger used
// throughout selfscan.
//
// It is built on Go's standard slog package. Every entry carries a subsystem
// attribute so that log aggregation can filter by component:
//
//   - **Bootstrap**: process start, client construction
//   - **Config**: controller settings loading and validation
//   - **Registry**: application registry loads and reloads
//   - **Watcher**: deployment watch connections
//   - **Reconciler**: event matching and scan job submission
//   - **JobTracker**: job sweeps and active job counting
//   - **Orchestrator**: activity lifecycle
//   - **Server**: metrics and probe endpoints
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stdout)
//
//	logging.Info("Registry", "Loaded %d applications configured for auto-scan", n)
//	logging.Error("Watcher", err, "Kubernetes API error in deployment watcher")
//
// # Controller-Runtime Integration
//
// Init installs the same slog handler as the controller-runtime logger
// (ctrl.SetLogger), so client-go and controller-runtime internals log through
// the same sink without warnings about an uninitialized logger.
package logging
