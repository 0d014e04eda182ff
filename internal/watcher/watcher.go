// Package watcher streams deployment changes from every namespace and hands
// them to a Handler.
//
// The watch is opened with a server-side timeout and reopened when it ends.
// When opening or reading the watch fails the controller is reported
// unhealthy and the watcher waits a fixed delay before reconnecting. Health
// is restored only once a later iteration ends without error. An expired
// resource version (410 Gone) reconnects at once.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/clock"
	"k8s.io/utils/ptr"

	"selfscan/pkg/logging"
)

const (
	DefaultTimeout    = 5 * time.Minute
	DefaultRetryDelay = 30 * time.Second
)

// Options configures a Watcher.
type Options struct {
	// Timeout is the server-side watch timeout. Rounded down to whole seconds.
	Timeout time.Duration

	// RetryDelay is the fixed wait after a failed iteration.
	RetryDelay time.Duration

	// Clock is used for the retry delay. Defaults to the real clock.
	Clock clock.Clock
}

// Watcher watches deployments cluster-wide.
type Watcher struct {
	clientset kubernetes.Interface
	handler   Handler
	health    HealthReporter

	timeout    time.Duration
	retryDelay time.Duration
	clock      clock.Clock

	mu    sync.RWMutex
	state State
}

// New creates a Watcher. health may be nil.
func New(clientset kubernetes.Interface, handler Handler, health HealthReporter, opts Options) *Watcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}

	return &Watcher{
		clientset:  clientset,
		handler:    handler,
		health:     health,
		timeout:    opts.Timeout,
		retryDelay: opts.RetryDelay,
		clock:      opts.Clock,
		state:      StateStopped,
	}
}

// State returns the current connection state.
func (w *Watcher) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Watcher) setHealthy(healthy bool) {
	if w.health != nil {
		w.health.SetHealthy(healthy)
	}
}

// Run watches until ctx is cancelled. It never returns a non-nil error;
// connection failures are retried indefinitely. Health is set only after an
// iteration that ended without error.
func (w *Watcher) Run(ctx context.Context) error {
	logging.Info("Watcher", "Starting deployment event watcher")
	defer w.setState(StateStopped)

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := w.watchOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if err != nil {
			w.setHealthy(false)
			logging.Error("Watcher", err, "Deployment watch failed, retrying in %s", w.retryDelay)
			w.setState(StateBackoff)

			select {
			case <-ctx.Done():
				return nil
			case <-w.clock.After(w.retryDelay):
			}
			continue
		}

		w.setHealthy(true)
	}
}

// watchOnce opens one watch connection and processes events until the
// server closes it. Errors returned here are connection level; event
// processing errors are logged and skipped.
func (w *Watcher) watchOnce(ctx context.Context) error {
	w.setState(StateConnecting)

	stream, err := w.clientset.AppsV1().Deployments(metav1.NamespaceAll).Watch(ctx, metav1.ListOptions{
		TimeoutSeconds: ptr.To(int64(w.timeout / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("failed to open deployment watch: %w", err)
	}
	defer stream.Stop()

	w.setState(StateStreaming)
	logging.Debug("Watcher", "Deployment watch established (timeout %s)", w.timeout)

	for {
		select {
		case <-ctx.Done():
			return nil

		case result, ok := <-stream.ResultChan():
			if !ok {
				logging.Debug("Watcher", "Deployment watch closed by server, reconnecting")
				return nil
			}

			switch result.Type {
			case watch.Error:
				err := apierrors.FromObject(result.Object)
				if apierrors.IsGone(err) || apierrors.IsResourceExpired(err) {
					logging.Debug("Watcher", "Deployment watch expired, reconnecting: %v", err)
					return nil
				}
				return fmt.Errorf("deployment watch error: %w", err)
			case watch.Bookmark:
				continue
			}

			deployment, ok := result.Object.(*appsv1.Deployment)
			if !ok {
				logging.Debug("Watcher", "Ignoring unexpected watch object %T", result.Object)
				continue
			}

			ev := toEvent(result.Type, deployment)
			if err := w.dispatch(ctx, ev); err != nil {
				logging.Error("Watcher", err, "Error processing deployment event %s %s/%s",
					ev.Kind, ev.Namespace, ev.Name)
			}
		}
	}
}

// dispatch calls the handler, converting a panic into an error so one bad
// event cannot end the stream.
func (w *Watcher) dispatch(ctx context.Context, ev DeploymentEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while handling event: %v", r)
		}
	}()
	return w.handler.HandleEvent(ctx, ev)
}

func toEvent(t watch.EventType, d *appsv1.Deployment) DeploymentEvent {
	labels := make(map[string]string, len(d.Labels))
	for k, v := range d.Labels {
		labels[k] = v
	}
	return DeploymentEvent{
		Kind:      EventKind(t),
		Namespace: d.Namespace,
		Name:      d.Name,
		UID:       d.UID,
		Labels:    labels,
	}
}
