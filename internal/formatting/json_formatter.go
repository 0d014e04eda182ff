package formatting

import (
	"fmt"

	batchv1 "k8s.io/api/batch/v1"

	"selfscan/internal/registry"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatApplications writes the definitions as a JSON array.
func (f *JSONFormatter) FormatApplications(defs []registry.ApplicationDefinition) error {
	if defs == nil {
		defs = []registry.ApplicationDefinition{}
	}
	_, err := fmt.Fprintln(f.options.Output, PrettyJSON(defs))
	return err
}

// FormatJob writes the job manifest as JSON.
func (f *JSONFormatter) FormatJob(job *batchv1.Job) error {
	_, err := fmt.Fprintln(f.options.Output, PrettyJSON(job))
	return err
}
