package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"
	batchv1 "k8s.io/api/batch/v1"
	sigsyaml "sigs.k8s.io/yaml"

	"selfscan/internal/registry"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatApplications writes the definitions as an applications document,
// the same shape the ConfigMap holds.
func (f *YAMLFormatter) FormatApplications(defs []registry.ApplicationDefinition) error {
	if defs == nil {
		defs = []registry.ApplicationDefinition{}
	}
	out, err := yaml.Marshal(registry.Document{Applications: defs})
	if err != nil {
		return fmt.Errorf("failed to marshal applications: %w", err)
	}
	_, err = f.options.Output.Write(out)
	return err
}

// FormatJob writes the job manifest as YAML, ready for kubectl apply.
func (f *YAMLFormatter) FormatJob(job *batchv1.Job) error {
	out, err := sigsyaml.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.Name, err)
	}
	_, err = f.options.Output.Write(out)
	return err
}
