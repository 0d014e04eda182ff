package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"selfscan/internal/app"
	"selfscan/internal/client"
	"selfscan/internal/config"
	"selfscan/internal/formatting"
	"selfscan/internal/registry"
	"selfscan/pkg/logging"
)

// sourceOptions selects where offline commands read configuration and
// application definitions from.
type sourceOptions struct {
	configPath string
	kubeconfig string
	namespace  string
	file       string
	output     string
	debug      bool
}

func addSourceFlags(cmd *cobra.Command, o *sourceOptions, defaultOutput string) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "Path to the controller configuration file")
	cmd.Flags().StringVar(&o.kubeconfig, "kubeconfig", "", "Path to a kubeconfig file (defaults to in-cluster configuration)")
	cmd.Flags().StringVar(&o.namespace, "namespace", "", "Namespace of the applications ConfigMap and scan jobs")
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Read application definitions from a local file instead of the cluster")
	cmd.Flags().StringVarP(&o.output, "output", "o", defaultOutput, "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "Enable debug logging")
}

// initLogging keeps command output clean: only warnings and errors go to
// stderr unless --debug is set.
func (o *sourceOptions) initLogging(cmd *cobra.Command) {
	level := logging.LevelWarn
	if o.debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
}

func (o *sourceOptions) formatter(cmd *cobra.Command) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(o.output)
	if err != nil {
		return nil, err
	}
	return formatting.NewFormatter(formatting.Options{
		Format: format,
		Output: cmd.OutOrStdout(),
	}), nil
}

// load reads the controller configuration and the application registry.
// A local file never touches the cluster.
func (o *sourceOptions) load(ctx context.Context) (config.ControllerConfig, *registry.Registry, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.ControllerConfig{}, nil, fmt.Errorf("failed to load controller configuration: %w", err)
	}
	if o.namespace != "" {
		cfg.Namespace = o.namespace
	}

	var source registry.Source
	switch {
	case o.file != "":
		source = &registry.FileSource{Path: o.file}
	case cfg.Applications.Source == config.SourceFile:
		source, err = app.NewApplicationsSource(cfg, nil)
	default:
		var clients *client.Clients
		clients, err = client.NewClients(o.kubeconfig)
		if err != nil {
			return cfg, nil, err
		}
		source, err = app.NewApplicationsSource(cfg, clients.Client)
	}
	if err != nil {
		return cfg, nil, err
	}

	reg := registry.New(source)
	if err := reg.Reload(ctx); err != nil {
		return cfg, nil, fmt.Errorf("failed to load application definitions: %w", err)
	}
	return cfg, reg, nil
}
