package formatting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	batchv1 "k8s.io/api/batch/v1"

	"selfscan/internal/registry"
	"selfscan/internal/scanjob"
)

const maxCellWidth = 100

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatApplications lists definitions with their canonical selector and
// any selector fragments that were ignored.
func (f *TableFormatter) FormatApplications(defs []registry.ApplicationDefinition) error {
	if len(defs) == 0 {
		f.formatEmptyMessage("No applications with scanOnDeploy enabled")
		return nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("NAME"), f.header("NAMESPACE"), f.header("SELECTOR"), f.header("IGNORED")})

	for i := range defs {
		sel := defs[i].Selector()
		selectorStr := sel.String()
		if sel.Empty() {
			selectorStr = "<all>"
		}
		ignored := "-"
		if len(sel.Ignored) > 0 {
			ignored = f.warn(strings.Join(sel.Ignored, ", "))
		}
		t.AppendRow(table.Row{defs[i].Name, defs[i].Namespace, Truncate(selectorStr, maxCellWidth), ignored})
	}

	t.AppendFooter(table.Row{"", "", "Total", len(defs)})
	t.Render()
	return nil
}

// FormatJob summarizes a scan job as key-value pairs.
func (f *TableFormatter) FormatJob(job *batchv1.Job) error {
	t := f.createTable()
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})

	rows := []table.Row{
		{"Name", job.Name},
		{"Namespace", job.Namespace},
		{"Application", job.Annotations[scanjob.AnnotationApplication]},
		{"Target namespace", job.Annotations[scanjob.AnnotationNamespace]},
		{"Trigger", job.Annotations[scanjob.AnnotationTrigger]},
		{"Service account", job.Spec.Template.Spec.ServiceAccountName},
	}
	for _, c := range job.Spec.Template.Spec.Containers {
		rows = append(rows,
			table.Row{fmt.Sprintf("Container %s image", c.Name), c.Image},
			table.Row{fmt.Sprintf("Container %s command", c.Name), Truncate(strings.Join(c.Args, " "), maxCellWidth)},
		)
	}
	for _, r := range rows {
		t.AppendRow(r)
	}

	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Output)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	if !f.options.Color {
		return s
	}
	return text.FgHiCyan.Sprint(s)
}

func (f *TableFormatter) warn(s string) string {
	if !f.options.Color {
		return s
	}
	return text.FgYellow.Sprint(s)
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(message string) {
	fmt.Fprintln(f.options.Output, f.warn(message))
}
