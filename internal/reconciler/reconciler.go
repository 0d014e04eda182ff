package reconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"selfscan/internal/events"
	"selfscan/internal/metrics"
	"selfscan/internal/registry"
	"selfscan/internal/scanjob"
	"selfscan/internal/watcher"
	"selfscan/pkg/logging"
)

// TriggerManual is the trigger recorded on jobs rendered by hand.
const TriggerManual = "manual"

// ApplicationLookup resolves a deployment to an application definition.
type ApplicationLookup interface {
	Lookup(namespace string, labels map[string]string) (*registry.ApplicationDefinition, bool)
}

// JobBuilder produces the scan job for a definition and trigger.
type JobBuilder interface {
	Build(def *registry.ApplicationDefinition, trigger string) (*batchv1.Job, error)
}

// EventRecorder records scan outcomes on the triggering deployment.
type EventRecorder interface {
	ScanTriggered(ctx context.Context, ref events.ObjectReference, data events.EventData) error
	ScanJobCreateFailed(ctx context.Context, ref events.ObjectReference, data events.EventData) error
}

// Reconciler turns deployment events into scan job submissions.
type Reconciler struct {
	applications ApplicationLookup
	builder      JobBuilder
	client       client.Client
	metrics      *metrics.Metrics
	recorder     EventRecorder

	newTriggerID func() string
}

// New creates a Reconciler. recorder may be nil to skip Kubernetes Events.
func New(applications ApplicationLookup, builder JobBuilder, c client.Client, m *metrics.Metrics, recorder EventRecorder) *Reconciler {
	return &Reconciler{
		applications: applications,
		builder:      builder,
		client:       c,
		metrics:      m,
		recorder:     recorder,
		newTriggerID: uuid.NewString,
	}
}

// Trigger returns the trigger label for a deployment event kind, e.g.
// "deployment-added".
func Trigger(kind watcher.EventKind) string {
	return "deployment-" + strings.ToLower(string(kind))
}

// HandleEvent implements watcher.Handler.
//
// Every event is counted. Added and Modified events for a deployment that
// matches an application definition submit one scan job. A rejected
// submission is counted and reported but not returned: the event is not
// retried. Only failures to build the job are returned.
func (r *Reconciler) HandleEvent(ctx context.Context, ev watcher.DeploymentEvent) error {
	logging.Debug("Reconciler", "Processing deployment event: %s %s/%s", ev.Kind, ev.Namespace, ev.Name)
	r.metrics.RecordDeploymentEvent(ev.Namespace, ev.Name, string(ev.Kind))

	if ev.Kind != watcher.EventAdded && ev.Kind != watcher.EventModified {
		return nil
	}

	def, ok := r.applications.Lookup(ev.Namespace, ev.Labels)
	if !ok {
		logging.Debug("Reconciler", "No matching application configuration for %s/%s", ev.Namespace, ev.Name)
		return nil
	}

	trigger := Trigger(ev.Kind)
	logging.Info("Reconciler", "Triggering scan for application '%s' due to %s event on %s/%s",
		def.Name, ev.Kind, ev.Namespace, ev.Name)

	job, err := r.builder.Build(def, trigger)
	if err != nil {
		return fmt.Errorf("failed to build scan job for application %q: %w", def.Name, err)
	}
	if job.Annotations == nil {
		job.Annotations = map[string]string{}
	}
	job.Annotations[scanjob.AnnotationTriggerID] = r.newTriggerID()

	ref := deploymentRef(ev)
	data := events.EventData{
		Application: def.Name,
		JobName:     job.Name,
		Trigger:     trigger,
	}

	if err := r.client.Create(ctx, job); err != nil {
		jobErr := &JobCreateError{
			Application: def.Name,
			Namespace:   def.Namespace,
			JobName:     job.Name,
			Reason:      FailureReason(err),
			Err:         err,
		}
		r.metrics.RecordJobFailed(def.Namespace, def.Name, jobErr.Reason)
		logging.Error("Reconciler", jobErr, "Scan job submission rejected")

		if r.recorder != nil {
			data.Reason = jobErr.Reason
			data.Error = err.Error()
			if err := r.recorder.ScanJobCreateFailed(ctx, ref, data); err != nil {
				logging.Debug("Reconciler", "Failed to record event on %s/%s: %v", ev.Namespace, ev.Name, err)
			}
		}
		return nil
	}

	r.metrics.RecordJobCreated(def.Namespace, def.Name)
	r.metrics.IncActiveJobs()
	logging.Info("Reconciler", "Created scan job '%s' for application '%s'", job.Name, def.Name)

	if r.recorder != nil {
		if err := r.recorder.ScanTriggered(ctx, ref, data); err != nil {
			logging.Debug("Reconciler", "Failed to record event on %s/%s: %v", ev.Namespace, ev.Name, err)
		}
	}
	return nil
}

func deploymentRef(ev watcher.DeploymentEvent) events.ObjectReference {
	return events.ObjectReference{
		APIVersion: appsv1.SchemeGroupVersion.String(),
		Kind:       "Deployment",
		Name:       ev.Name,
		Namespace:  ev.Namespace,
		UID:        ev.UID,
	}
}
