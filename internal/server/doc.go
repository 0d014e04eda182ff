// Package server exposes the controller's Prometheus metrics and probe
// endpoints on two listeners.
//
// Metrics listener (default :8080):
//
//	/metrics   Prometheus exposition
//
// Health listener (default :8081):
//
//	/health    always 200 "healthy" while the process serves requests
//	/ready     always 200 "ready" while the process serves requests
//	/healthz   controller-runtime healthz; fails while the controller is unhealthy
//	/readyz    controller-runtime healthz; fails until definitions are loaded
package server
