// Package metrics defines the Prometheus series exported by the controller.
//
// Series names are part of the operator contract (dashboards and alerts
// depend on them) and must not change.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bd_selfscan"

// Label names.
const (
	LabelNamespace   = "namespace"
	LabelApplication = "application"
	LabelEventType   = "event_type"
	LabelReason      = "reason"
	LabelSeverity    = "severity"
)

// JobDurationBuckets are the histogram buckets for scan job durations, in
// seconds.
var JobDurationBuckets = []float64{60, 300, 600, 1200, 1800, 3600}

// Metrics holds the controller's collectors.
type Metrics struct {
	DeploymentEvents *prometheus.CounterVec
	JobsCreated      *prometheus.CounterVec
	JobsFailed       *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	PolicyViolations *prometheus.CounterVec
	ControllerHealth prometheus.Gauge
	ActiveJobs       prometheus.Gauge

	healthy atomic.Bool
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient for tests and one-shot commands.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DeploymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deployment_events_total",
			Help:      "Total number of deployment events processed",
		}, []string{LabelNamespace, LabelApplication, LabelEventType}),
		JobsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_created_total",
			Help:      "Total number of scan jobs created",
		}, []string{LabelNamespace, LabelApplication}),
		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of failed scan job creations",
		}, []string{LabelNamespace, LabelApplication, LabelReason}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of scan jobs in seconds",
			Buckets:   JobDurationBuckets,
		}, []string{LabelNamespace, LabelApplication}),
		PolicyViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_violations_total",
			Help:      "Total number of policy violations detected",
		}, []string{LabelNamespace, LabelApplication, LabelSeverity}),
		ControllerHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controller_healthy",
			Help:      "Controller health status (1=healthy, 0=unhealthy)",
		}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Number of currently active scan jobs",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.DeploymentEvents,
			m.JobsCreated,
			m.JobsFailed,
			m.JobDuration,
			m.PolicyViolations,
			m.ControllerHealth,
			m.ActiveJobs,
		)
	}

	return m
}

// RecordDeploymentEvent counts a deployment event. The application label is
// the deployment name.
func (m *Metrics) RecordDeploymentEvent(namespace, application, eventType string) {
	m.DeploymentEvents.WithLabelValues(namespace, application, eventType).Inc()
}

// RecordJobCreated counts a submitted scan job.
func (m *Metrics) RecordJobCreated(namespace, application string) {
	m.JobsCreated.WithLabelValues(namespace, application).Inc()
}

// RecordJobFailed counts a rejected scan job submission.
func (m *Metrics) RecordJobFailed(namespace, application, reason string) {
	m.JobsFailed.WithLabelValues(namespace, application, reason).Inc()
}

// ObserveJobDuration records the run time of a finished scan job.
func (m *Metrics) ObserveJobDuration(namespace, application string, d time.Duration) {
	m.JobDuration.WithLabelValues(namespace, application).Observe(d.Seconds())
}

// RecordPolicyViolation counts a policy violation reported by a scan.
func (m *Metrics) RecordPolicyViolation(namespace, application, severity string) {
	m.PolicyViolations.WithLabelValues(namespace, application, severity).Inc()
}

// IncActiveJobs bumps the active job gauge after a submission. The monitor
// later replaces the value with an observed count.
func (m *Metrics) IncActiveJobs() {
	m.ActiveJobs.Inc()
}

// SetActiveJobs sets the active job gauge.
func (m *Metrics) SetActiveJobs(n int) {
	m.ActiveJobs.Set(float64(n))
}

// SetHealthy updates the health flag and the health gauge.
func (m *Metrics) SetHealthy(healthy bool) {
	m.healthy.Store(healthy)
	if healthy {
		m.ControllerHealth.Set(1)
	} else {
		m.ControllerHealth.Set(0)
	}
}

// Healthy reports the current health flag.
func (m *Metrics) Healthy() bool {
	return m.healthy.Load()
}
