// Package events records Kubernetes Events on the Deployments that trigger
// scans, so `kubectl describe deployment` shows when a scan was submitted
// and why a submission failed.
//
// Messages come from a small template engine keyed by EventReason. Failure
// reasons are recorded as Warning events, everything else as Normal.
//
//	generator := events.NewEventGenerator(c, "", nil)
//	err := generator.ScanTriggered(ctx, ref, events.EventData{
//		Application: "shop",
//		JobName:     job.Name,
//		Trigger:     "deployment-added",
//	})
//
// Event creation is best effort; callers log and ignore the returned error.
package events
