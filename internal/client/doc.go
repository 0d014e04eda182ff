// Package client builds the Kubernetes clients the controller talks to the
// API server with.
//
// # Configuration Discovery
//
// The REST configuration is resolved in this order:
//
//  1. An explicit kubeconfig path (the --kubeconfig flag)
//  2. controller-runtime's standard detection: the KUBECONFIG environment
//     variable, in-cluster service account credentials, then ~/.kube/config
//
// # Clients
//
// Two clients are built from the same configuration:
//
//   - A controller-runtime client for Jobs, ConfigMaps and Events
//   - A client-go clientset for the cluster-wide deployment watch
//
// Both share a scheme with the standard Kubernetes types registered.
//
//	clients, err := client.NewClients(kubeconfig)
//	if err != nil {
//	    return err
//	}
//	if err := clients.CheckAccess(ctx, namespace); err != nil {
//	    logging.Warn("Bootstrap", "Missing permissions: %v", err)
//	}
//
// # Thread Safety
//
// All clients are safe for concurrent use.
package client
