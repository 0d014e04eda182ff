// Package jobs tracks the scan jobs the controller has submitted: it sweeps
// finished jobs past their retention and counts the ones still running.
package jobs

import (
	"context"
	"fmt"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"selfscan/internal/metrics"
	"selfscan/internal/scanjob"
	"selfscan/pkg/logging"
)

// Tracker observes scan jobs in the controller namespace.
type Tracker struct {
	client    client.Client
	namespace string
	retention time.Duration
	clock     clock.PassiveClock
	metrics   *metrics.Metrics
}

// NewTracker creates a Tracker. A nil clock uses the real clock.
func NewTracker(c client.Client, namespace string, retention time.Duration, clk clock.PassiveClock, m *metrics.Metrics) *Tracker {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Tracker{
		client:    c,
		namespace: namespace,
		retention: retention,
		clock:     clk,
		metrics:   m,
	}
}

// Sweep deletes automated scan jobs that completed more than the retention
// period ago and returns how many were deleted. Failed deletions are logged
// and skipped; only a failed list is returned as an error.
func (t *Tracker) Sweep(ctx context.Context) (int, error) {
	list, err := t.list(ctx, scanjob.ScanLabelSelector())
	if err != nil {
		return 0, err
	}

	cutoff := t.clock.Now().Add(-t.retention)
	deleted := 0

	for i := range list.Items {
		job := &list.Items[i]
		completed := job.Status.CompletionTime
		if completed == nil || !completed.Time.Before(cutoff) {
			continue
		}

		t.observeDuration(job)

		err := t.client.Delete(ctx, job, client.PropagationPolicy("Background"))
		if err != nil {
			logging.Warn("JobTracker", "Failed to delete job %s: %v", job.Name, err)
			continue
		}
		deleted++
		logging.Info("JobTracker", "Cleaned up old job: %s", job.Name)
	}

	if deleted > 0 {
		logging.Info("JobTracker", "Cleaned up %d old scan jobs", deleted)
	}
	return deleted, nil
}

// CountActive counts scan jobs that have neither completed nor failed and
// publishes the count on the active jobs gauge.
func (t *Tracker) CountActive(ctx context.Context) (int, error) {
	list, err := t.list(ctx, scanjob.ManagedLabelSelector())
	if err != nil {
		return 0, err
	}

	active := 0
	for i := range list.Items {
		if IsActive(&list.Items[i]) {
			active++
		}
	}

	if t.metrics != nil {
		t.metrics.SetActiveJobs(active)
	}
	logging.Debug("JobTracker", "Active scan jobs: %d", active)
	return active, nil
}

// IsActive reports whether job has neither completed nor recorded a failed pod.
func IsActive(job *batchv1.Job) bool {
	return job.Status.CompletionTime == nil && job.Status.Failed == 0
}

func (t *Tracker) list(ctx context.Context, selector labels.Selector) (*batchv1.JobList, error) {
	list := &batchv1.JobList{}
	err := t.client.List(ctx, list,
		client.InNamespace(t.namespace),
		client.MatchingLabelsSelector{Selector: selector},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan jobs in %s: %w", t.namespace, err)
	}
	return list, nil
}

func (t *Tracker) observeDuration(job *batchv1.Job) {
	if t.metrics == nil || job.Status.StartTime == nil || job.Status.CompletionTime == nil {
		return
	}
	application := job.Annotations[scanjob.AnnotationApplication]
	namespace := job.Annotations[scanjob.AnnotationNamespace]
	if application == "" {
		application = job.Labels[scanjob.LabelTargetApplication]
	}
	d := job.Status.CompletionTime.Sub(job.Status.StartTime.Time)
	if d < 0 {
		return
	}
	t.metrics.ObserveJobDuration(namespace, application, d)
}
