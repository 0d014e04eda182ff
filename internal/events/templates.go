package events

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"selfscan/pkg/logging"
)

// maxErrorLength bounds the error text carried into an event message.
const maxErrorLength = 512

// MessageTemplateEngine provides dynamic message generation for events.
// Templates use text/template syntax with the sprig function library.
type MessageTemplateEngine struct {
	templates map[EventReason]string
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		templates: make(map[EventReason]string),
	}
	engine.loadDefaultTemplates()
	return engine
}

func (e *MessageTemplateEngine) loadDefaultTemplates() {
	e.templates[ReasonScanTriggered] = "Scan job {{.JobName}} created for application {{.Application}} ({{.Trigger}})"
	e.templates[ReasonScanJobCreateFailed] = "Failed to create scan job {{.JobName}} for application {{.Application}}" +
		"{{with .Reason}} [{{.}}]{{end}}{{with .Error}}: {{trunc " + fmt.Sprint(maxErrorLength) + " .}}{{end}}"
}

// Render generates a message for the given event reason and data. Unknown
// reasons and broken templates fall back to a generic message.
func (e *MessageTemplateEngine) Render(reason EventReason, data EventData) string {
	text, exists := e.templates[reason]
	if !exists {
		return fallbackMessage(reason, data)
	}

	msg, err := renderTemplate(string(reason), text, data)
	if err != nil {
		logging.Warn("Events", "Cannot render %s message template: %v", reason, err)
		return fallbackMessage(reason, data)
	}
	return msg
}

// SetTemplate allows customizing the message template for a specific event reason.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, text string) {
	e.templates[reason] = text
}

// GetTemplate returns the template for a specific event reason.
func (e *MessageTemplateEngine) GetTemplate(reason EventReason) (string, bool) {
	text, exists := e.templates[reason]
	return text, exists
}

func renderTemplate(name, text string, data EventData) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return b.String(), nil
}

func fallbackMessage(reason EventReason, data EventData) string {
	return fmt.Sprintf("Event: %s for %s/%s", string(reason), data.Namespace, data.Name)
}
