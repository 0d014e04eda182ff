// Package orchestrator runs the controller's independent activities
// together: the deployment watch, the job retention sweep, the active job
// monitor, the periodic registry reload and the HTTP server.
//
// Activities run concurrently and fail together: the first activity that
// returns an error cancels the others and the error is returned from Run.
// Cancelling the parent context is a clean shutdown and returns nil.
//
// Periodic builds the common "wait, run, on error wait a fixed delay"
// activity:
//
//	sweep := orchestrator.Periodic("job-cleanup", time.Hour, 5*time.Minute, nil,
//		func(ctx context.Context) error {
//			_, err := tracker.Sweep(ctx)
//			return err
//		})
//
// Status reports the state of every activity for diagnostics.
package orchestrator
