// Package reconciler decides, for each deployment event, whether a scan job
// is submitted.
//
// # Flow
//
//  1. Every event is counted on bd_selfscan_deployment_events_total.
//  2. Events other than ADDED and MODIFIED stop here.
//  3. The deployment's namespace and labels are resolved against the current
//     application registry. No match ends processing.
//  4. A job is built with trigger "deployment-<kind>" and submitted.
//  5. The outcome is counted and recorded as a Kubernetes Event on the
//     deployment (ScanTriggered or ScanJobCreateFailed).
//
// A rejected submission is terminal for that event. Names carry a second
// resolution timestamp, so two qualifying events for one application in
// the same second lead to an AlreadyExists rejection for the second.
//
// Each submitted job carries a bd-selfscan.io/trigger-id annotation that
// correlates it with the controller logs.
package reconciler
