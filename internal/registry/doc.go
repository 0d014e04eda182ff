// Package registry holds the application definitions that decide which
// deployments trigger a scan.
//
// Definitions are read from a Source (the applications ConfigMap or a local
// file) as a YAML document:
//
//	applications:
//	  - name: Payments API
//	    namespace: payments
//	    labelSelector: app=payments,tier=api
//	    scanOnDeploy: true
//
// Only definitions with scanOnDeploy set are indexed. Each is keyed by its
// namespace and canonical selector string; when two definitions share a key
// the later one wins.
//
// A Registry publishes complete generations (Index values) with an atomic
// pointer swap, so the watcher never sees a half-loaded set while a reload
// is in progress. A failed reload keeps the previous generation.
package registry
