package registry

import (
	"fmt"

	"selfscan/internal/selector"
)

// ApplicationDefinition describes an application eligible for scanning.
// Definitions are immutable once loaded.
type ApplicationDefinition struct {
	Name          string `yaml:"name" json:"name"`
	Namespace     string `yaml:"namespace" json:"namespace"`
	LabelSelector string `yaml:"labelSelector" json:"labelSelector"`
	ScanOnDeploy  bool   `yaml:"scanOnDeploy" json:"scanOnDeploy"`

	selector selector.Selector
}

// Selector returns the parsed label selector.
func (d *ApplicationDefinition) Selector() selector.Selector {
	return d.selector
}

// Key returns the index key of the definition.
func (d *ApplicationDefinition) Key() Key {
	return Key{Namespace: d.Namespace, Signature: d.selector.String()}
}

// Document is the YAML document stored in the applications ConfigMap.
type Document struct {
	Applications []ApplicationDefinition `yaml:"applications"`
}

// Key identifies a definition in the index.
type Key struct {
	Namespace string
	Signature string
}

// String renders the key as namespace:signature.
func (k Key) String() string {
	return k.Namespace + ":" + k.Signature
}

// LoadError is returned when the application definitions could not be read
// or parsed. The registry keeps its previous generation when it occurs.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load applications from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
