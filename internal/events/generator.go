package events

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"selfscan/pkg/logging"
)

// DefaultComponent is the event source component.
const DefaultComponent = "bd-selfscan-controller"

// EventGenerator records Kubernetes Events on the objects that caused a scan.
type EventGenerator struct {
	client    client.Client
	component string
	clock     clock.PassiveClock
	templates *MessageTemplateEngine
}

// NewEventGenerator creates a new EventGenerator. An empty component uses
// DefaultComponent and a nil clock uses the real clock.
func NewEventGenerator(c client.Client, component string, clk clock.PassiveClock) *EventGenerator {
	if component == "" {
		component = DefaultComponent
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &EventGenerator{
		client:    c,
		component: component,
		clock:     clk,
		templates: NewMessageTemplateEngine(),
	}
}

// Templates exposes the message templates for customization.
func (g *EventGenerator) Templates() *MessageTemplateEngine {
	return g.templates
}

// ScanTriggered records that a scan job was submitted for ref.
func (g *EventGenerator) ScanTriggered(ctx context.Context, ref ObjectReference, data EventData) error {
	return g.emit(ctx, ref, ReasonScanTriggered, data)
}

// ScanJobCreateFailed records that the scan job submission for ref failed.
func (g *EventGenerator) ScanJobCreateFailed(ctx context.Context, ref ObjectReference, data EventData) error {
	return g.emit(ctx, ref, ReasonScanJobCreateFailed, data)
}

func (g *EventGenerator) emit(ctx context.Context, ref ObjectReference, reason EventReason, data EventData) error {
	data.Name = ref.Name
	data.Namespace = ref.Namespace

	message := g.templates.Render(reason, data)
	eventType := string(getEventType(reason))

	logging.Debug("events", "Generating %s event for %s/%s: reason=%s, message=%s",
		ref.Kind, ref.Namespace, ref.Name, string(reason), message)

	now := metav1.NewTime(g.clock.Now())
	event := &corev1.Event{
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: ref.Name + "-",
			Namespace:    ref.Namespace,
		},
		InvolvedObject: corev1.ObjectReference{
			APIVersion: ref.APIVersion,
			Kind:       ref.Kind,
			Name:       ref.Name,
			Namespace:  ref.Namespace,
			UID:        ref.UID,
		},
		Reason:         string(reason),
		Message:        message,
		Type:           eventType,
		Source:         corev1.EventSource{Component: g.component},
		FirstTimestamp: now,
		LastTimestamp:  now,
		Count:          1,
	}

	if err := g.client.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create Kubernetes Event: %w", err)
	}
	return nil
}
