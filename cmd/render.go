package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"selfscan/internal/reconciler"
	"selfscan/internal/registry"
	"selfscan/internal/scanjob"
)

type renderOptions struct {
	sourceOptions
	application          string
	applicationNamespace string
	trigger              string
}

// newRenderCmd prints the scan job the controller would submit for an
// application without creating it.
func newRenderCmd() *cobra.Command {
	o := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the scan job the controller would create for an application",
		Long: `Builds the scan job for an application exactly as the controller would and
prints it. The output can be applied with kubectl to run a scan by hand:

  selfscan render --application Shop | kubectl create -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	addSourceFlags(cmd, &o.sourceOptions, "yaml")
	cmd.Flags().StringVar(&o.application, "application", "", "Name of the application to render a scan job for")
	cmd.Flags().StringVar(&o.applicationNamespace, "application-namespace", "", "Namespace of the application, when the name is not unique")
	cmd.Flags().StringVar(&o.trigger, "trigger", reconciler.TriggerManual, "Trigger recorded on the job")
	_ = cmd.MarkFlagRequired("application")

	return cmd
}

func (o *renderOptions) run(cmd *cobra.Command) error {
	o.initLogging(cmd)

	formatter, err := o.formatter(cmd)
	if err != nil {
		return err
	}

	cfg, reg, err := o.load(cmd.Context())
	if err != nil {
		return err
	}

	def, err := findApplication(reg.Current().Definitions(), o.application, o.applicationNamespace)
	if err != nil {
		return err
	}

	builder, err := scanjob.NewBuilder(scanjob.OptionsFromConfig(cfg), nil)
	if err != nil {
		return fmt.Errorf("failed to create scan job builder: %w", err)
	}
	job, err := builder.Build(def, o.trigger)
	if err != nil {
		return fmt.Errorf("failed to build scan job for %s: %w", def.Name, err)
	}
	return formatter.FormatJob(job)
}

func findApplication(defs []registry.ApplicationDefinition, name, namespace string) (*registry.ApplicationDefinition, error) {
	var found []*registry.ApplicationDefinition
	for i := range defs {
		if defs[i].Name != name {
			continue
		}
		if namespace != "" && defs[i].Namespace != namespace {
			continue
		}
		found = append(found, &defs[i])
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("application %q not found", name)
	case 1:
		return found[0], nil
	default:
		namespaces := make([]string, 0, len(found))
		for _, d := range found {
			namespaces = append(namespaces, d.Namespace)
		}
		return nil, fmt.Errorf("application %q is defined in several namespaces (%s), use --application-namespace",
			name, strings.Join(namespaces, ", "))
	}
}
