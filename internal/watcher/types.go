package watcher

import (
	"context"

	"k8s.io/apimachinery/pkg/types"
)

// EventKind is the kind of a deployment change, as reported by the watch.
type EventKind string

const (
	EventAdded    EventKind = "ADDED"
	EventModified EventKind = "MODIFIED"
	EventDeleted  EventKind = "DELETED"
)

// DeploymentEvent is a single deployment change observed on the watch
// stream. Labels is never nil.
type DeploymentEvent struct {
	Kind      EventKind
	Namespace string
	Name      string
	UID       types.UID
	Labels    map[string]string
}

// Handler processes deployment events. An error is logged by the watcher
// and the stream continues with the next event.
type Handler interface {
	HandleEvent(ctx context.Context, ev DeploymentEvent) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev DeploymentEvent) error

// HandleEvent calls f(ctx, ev).
func (f HandlerFunc) HandleEvent(ctx context.Context, ev DeploymentEvent) error {
	return f(ctx, ev)
}

// HealthReporter receives the watcher's view of controller health.
type HealthReporter interface {
	SetHealthy(healthy bool)
}

// State is the connection state of the watcher.
type State string

const (
	StateConnecting State = "Connecting"
	StateStreaming  State = "Streaming"
	StateBackoff    State = "Backoff"
	StateStopped    State = "Stopped"
)
