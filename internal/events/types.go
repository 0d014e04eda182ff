package events

import "k8s.io/apimachinery/pkg/types"

// EventType represents the type/severity of a Kubernetes Event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

// Scan trigger event reasons, recorded on the Deployment that triggered them.
const (
	// ReasonScanTriggered indicates a scan job was submitted for the deployment.
	ReasonScanTriggered EventReason = "ScanTriggered"

	// ReasonScanJobCreateFailed indicates the scan job submission was rejected.
	ReasonScanJobCreateFailed EventReason = "ScanJobCreateFailed"
)

// EventData holds contextual information for event message templating.
type EventData struct {
	// Name is the name of the object the event is recorded on.
	Name string

	// Namespace is the namespace of that object.
	Namespace string

	// Application is the matched application definition.
	Application string

	// JobName is the scan job that was (or would have been) submitted.
	JobName string

	// Trigger describes what caused the scan, e.g. "deployment-added".
	Trigger string

	// Reason is the failure reason reported for rejected submissions.
	Reason string

	// Error contains error information for failure events.
	Error string
}

// ObjectReference represents a reference to a Kubernetes object for event creation.
type ObjectReference struct {
	APIVersion string
	Kind       string
	Name       string
	Namespace  string
	UID        types.UID
}

// getEventType returns the appropriate EventType for a given EventReason.
func getEventType(reason EventReason) EventType {
	switch reason {
	case ReasonScanJobCreateFailed:
		return EventTypeWarning
	default:
		return EventTypeNormal
	}
}
