package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"selfscan/pkg/logging"
)

// Activity is a long-running unit of work. Run blocks until ctx is
// cancelled or the activity fails.
type Activity struct {
	Name string
	Run  func(ctx context.Context) error
}

// ActivityState is the lifecycle state of an activity.
type ActivityState string

const (
	StatePending ActivityState = "Pending"
	StateRunning ActivityState = "Running"
	StateStopped ActivityState = "Stopped"
	StateFailed  ActivityState = "Failed"
)

// ActivityStatus is a snapshot of one activity.
type ActivityStatus struct {
	Name      string
	State     ActivityState
	StartedAt time.Time
	LastError string
}

// HealthReporter receives the orchestrator's view of controller health.
type HealthReporter interface {
	SetHealthy(healthy bool)
}

// Orchestrator runs a fixed set of activities.
type Orchestrator struct {
	health HealthReporter
	clock  clock.PassiveClock

	mu         sync.RWMutex
	activities []Activity
	status     map[string]*ActivityStatus
}

// New creates an Orchestrator. health may be nil.
func New(health HealthReporter, activities ...Activity) *Orchestrator {
	o := &Orchestrator{
		health: health,
		clock:  clock.RealClock{},
		status: make(map[string]*ActivityStatus),
	}
	for _, a := range activities {
		o.Add(a)
	}
	return o
}

// Add registers an activity. It must be called before Run.
func (o *Orchestrator) Add(a Activity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activities = append(o.activities, a)
	o.status[a.Name] = &ActivityStatus{Name: a.Name, State: StatePending}
}

// Run starts every activity and blocks until all have stopped. The first
// activity error cancels the others, clears the health flag and is returned.
// Cancelling ctx is a clean shutdown and returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.RLock()
	activities := append([]Activity(nil), o.activities...)
	o.mu.RUnlock()

	if len(activities) == 0 {
		return fmt.Errorf("no activities registered")
	}

	logging.Info("Orchestrator", "Starting %d activities", len(activities))

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range activities {
		g.Go(func() error {
			o.setState(a.Name, StateRunning, nil)
			err := a.Run(gctx)

			switch {
			case err != nil && ctx.Err() == nil:
				o.setState(a.Name, StateFailed, err)
				return fmt.Errorf("activity %s failed: %w", a.Name, err)
			case ctx.Err() == nil && gctx.Err() == nil:
				logging.Warn("Orchestrator", "Activity %s returned before shutdown", a.Name)
			}
			o.setState(a.Name, StateStopped, nil)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.setHealthy(false)
		logging.Error("Orchestrator", err, "Controller error")
		return err
	}

	logging.Info("Orchestrator", "All activities stopped")
	return nil
}

// Status returns the status of all activities ordered by name.
func (o *Orchestrator) Status() []ActivityStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	result := make([]ActivityStatus, 0, len(o.status))
	for _, s := range o.status {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (o *Orchestrator) setState(name string, state ActivityState, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.status[name]
	if !ok {
		return
	}
	s.State = state
	if state == StateRunning {
		s.StartedAt = o.clock.Now()
	}
	if err != nil {
		s.LastError = err.Error()
	}
	logging.Debug("Orchestrator", "Activity %s is %s", name, state)
}

func (o *Orchestrator) setHealthy(healthy bool) {
	if o.health != nil {
		o.health.SetHealthy(healthy)
	}
}

// Periodic returns an activity that waits interval, calls fn, and repeats.
// When fn fails the error is logged and an extra retryDelay is waited
// before the next interval. Errors never end the activity. A nil clock uses
// the real clock.
func Periodic(name string, interval, retryDelay time.Duration, clk clock.Clock, fn func(ctx context.Context) error) Activity {
	if clk == nil {
		clk = clock.RealClock{}
	}

	return Activity{
		Name: name,
		Run: func(ctx context.Context) error {
			logging.Info("Orchestrator", "Starting %s routine (every %s)", name, interval)
			for {
				if !sleep(ctx, clk, interval) {
					return nil
				}

				if err := fn(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					logging.Error("Orchestrator", err, "Error in %s routine, retrying in %s", name, retryDelay)
					if !sleep(ctx, clk, retryDelay) {
						return nil
					}
				}
			}
		},
	}
}

// sleep waits d and reports false if ctx ended first.
func sleep(ctx context.Context, clk clock.Clock, d time.Duration) bool {
	t := clk.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}
