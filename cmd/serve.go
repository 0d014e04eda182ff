package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"selfscan/internal/app"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath points at the controller configuration file.
// When empty, the built-in defaults are used.
var serveConfigPath string

// serveKubeconfig overrides in-cluster and KUBECONFIG discovery.
var serveKubeconfig string

// serveNamespace overrides the namespace scan jobs are created in.
var serveNamespace string

// serveLogFormat selects text or json log output.
var serveLogFormat string

// serveCmd runs the controller until it is interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan controller",
	Long: `Runs the selfscan controller.

The controller:
  - loads application definitions from the applications ConfigMap (or a file)
  - watches deployments in all namespaces and submits a scan job when a
    deployment matching an application is added or modified
  - deletes finished automated scan jobs after their retention period
  - publishes Prometheus metrics on the metrics address and liveness and
    readiness probes on the health address

Configuration:
  Settings are read from the file given with --config on top of the built-in
  defaults. The NAMESPACE and DEBUG environment variables and the command line
  flags override the file.

The controller runs until it receives SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath, serveKubeconfig)
	cfg.Namespace = serveNamespace
	cfg.LogFormat = serveLogFormat

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to the controller configuration file")
	serveCmd.Flags().StringVar(&serveKubeconfig, "kubeconfig", "", "Path to a kubeconfig file (defaults to in-cluster configuration)")
	serveCmd.Flags().StringVar(&serveNamespace, "namespace", "", "Namespace for scan jobs and the applications ConfigMap")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "", "Log format: text or json")
}
