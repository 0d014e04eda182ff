package client

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"selfscan/pkg/logging"
)

// UserAgent identifies the controller to the API server.
const UserAgent = "bd-selfscan-controller"

// Clients bundles the clients built from one REST configuration.
type Clients struct {
	Config    *rest.Config
	Scheme    *runtime.Scheme
	Client    client.Client
	Clientset kubernetes.Interface
}

// NewScheme returns a scheme with the standard Kubernetes types registered.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	return scheme
}

// RestConfig resolves the REST configuration. An explicit kubeconfig path
// wins over controller-runtime's discovery.
func RestConfig(kubeconfig string) (*rest.Config, error) {
	var (
		config *rest.Config
		err    error
	)

	if kubeconfig != "" {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig %s: %w", kubeconfig, err)
		}
		logging.Debug("Client", "Using kubeconfig %s", kubeconfig)
	} else {
		config, err = ctrl.GetConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get Kubernetes config: %w", err)
		}
	}

	config = rest.CopyConfig(config)
	config.UserAgent = UserAgent
	return config, nil
}

// NewClients resolves the REST configuration and builds both clients.
func NewClients(kubeconfig string) (*Clients, error) {
	config, err := RestConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	return NewClientsForConfig(config)
}

// NewClientsForConfig builds both clients from config.
func NewClientsForConfig(config *rest.Config) (*Clients, error) {
	scheme := NewScheme()

	k8sClient, err := client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset: %w", err)
	}

	logging.Info("Client", "Connected to Kubernetes API at %s", config.Host)
	return &Clients{
		Config:    config,
		Scheme:    scheme,
		Client:    k8sClient,
		Clientset: clientset,
	}, nil
}

// CheckAccess performs the read calls the controller depends on: listing
// scan jobs in namespace and listing deployments cluster-wide. It returns
// the first failure.
func (c *Clients) CheckAccess(ctx context.Context, namespace string) error {
	if err := c.Client.List(ctx, &batchv1.JobList{}, client.InNamespace(namespace), client.Limit(1)); err != nil {
		return fmt.Errorf("cannot list jobs in %s: %w", namespace, err)
	}
	if err := c.Client.List(ctx, &appsv1.DeploymentList{}, client.Limit(1)); err != nil {
		return fmt.Errorf("cannot list deployments cluster-wide: %w", err)
	}
	return nil
}
