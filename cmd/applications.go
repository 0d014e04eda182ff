package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"selfscan/internal/registry"
	"selfscan/internal/selector"
)

type applicationsOptions struct {
	sourceOptions
	matchNamespace string
	matchLabels    string
}

// newApplicationsCmd lists the application definitions the controller
// would load, or resolves which one a deployment would trigger.
func newApplicationsCmd() *cobra.Command {
	o := &applicationsOptions{}

	cmd := &cobra.Command{
		Use:   "applications",
		Short: "List the application definitions eligible for scanning",
		Long: `Loads the application definitions from the applications ConfigMap (or a
local file with --file) and lists the ones with scanOnDeploy enabled,
together with their normalized label selector and any selector fragments
that were ignored.

With --match, prints the definition a deployment in the given namespace
with the given labels would trigger:

  selfscan applications --file applications.yaml --match retail --labels app=shop,tier=web`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	addSourceFlags(cmd, &o.sourceOptions, "table")
	cmd.Flags().StringVar(&o.matchNamespace, "match", "", "Namespace of a deployment to resolve against the definitions")
	cmd.Flags().StringVar(&o.matchLabels, "labels", "", "Deployment labels for --match, as key=value pairs separated by commas")

	return cmd
}

func (o *applicationsOptions) run(cmd *cobra.Command) error {
	o.initLogging(cmd)

	formatter, err := o.formatter(cmd)
	if err != nil {
		return err
	}

	_, reg, err := o.load(cmd.Context())
	if err != nil {
		return err
	}

	if o.matchNamespace == "" {
		return formatter.FormatApplications(reg.Current().Definitions())
	}

	labels := labelsFromFlag(o.matchLabels)
	def, ok := reg.Lookup(o.matchNamespace, labels)
	if !ok {
		return fmt.Errorf("no application matches a deployment in %s with labels %q", o.matchNamespace, o.matchLabels)
	}
	return formatter.FormatApplications([]registry.ApplicationDefinition{*def})
}

// labelsFromFlag turns "k=v,k2=v2" into a label set using the selector
// grammar.
func labelsFromFlag(s string) map[string]string {
	sel := selector.Parse(s)
	labels := make(map[string]string, len(sel.Requirements))
	for _, req := range sel.Requirements {
		labels[req.Key] = req.Value
	}
	return labels
}
