// Package formatting renders controller data for the command line: the
// loaded application definitions and the scan jobs the builder produces.
//
// Three output formats are supported (table, JSON, YAML). Tables use
// go-pretty; Kubernetes objects are rendered with sigs.k8s.io/yaml so field
// names match kubectl output.
package formatting

import (
	"fmt"
	"io"
	"os"

	batchv1 "k8s.io/api/batch/v1"

	"selfscan/internal/registry"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Output io.Writer // Defaults to os.Stdout
	Color  bool      // Enable colored output
}

// Formatter renders controller data
type Formatter interface {
	FormatApplications(defs []registry.ApplicationDefinition) error
	FormatJob(job *batchv1.Job) error
}

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatTable, FormatJSON, FormatYAML:
		return OutputFormat(s), nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for options.Format.
func NewFormatter(options Options) Formatter {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
