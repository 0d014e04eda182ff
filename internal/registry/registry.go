package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"selfscan/pkg/logging"
)

// Registry holds the current generation of application definitions.
//
// Readers always observe one complete generation: a reload builds a new
// Index off to the side and publishes it with a single atomic swap.
type Registry struct {
	source  Source
	current atomic.Pointer[Index]

	// reloadMu serializes Reload so two concurrent reloads cannot publish
	// out of order.
	reloadMu sync.Mutex
	loaded   atomic.Bool

	listenersMu sync.RWMutex
	listeners   []func(*Index)
}

// New creates a registry backed by source. The registry starts empty.
func New(source Source) *Registry {
	r := &Registry{source: source}
	r.current.Store(NewIndex(nil))
	return r
}

// Current returns the current generation.
func (r *Registry) Current() *Index {
	return r.current.Load()
}

// Lookup resolves a deployment's namespace and labels to a definition in the
// current generation.
func (r *Registry) Lookup(namespace string, labels map[string]string) (*ApplicationDefinition, bool) {
	return r.Current().Lookup(namespace, labels)
}

// Len returns the number of definitions in the current generation.
func (r *Registry) Len() int {
	return r.Current().Len()
}

// Loaded reports whether at least one reload has succeeded.
func (r *Registry) Loaded() bool {
	return r.loaded.Load()
}

// OnReplace registers fn to be called after each published generation.
func (r *Registry) OnReplace(fn func(*Index)) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Replace publishes idx as the current generation.
func (r *Registry) Replace(idx *Index) {
	if idx == nil {
		idx = NewIndex(nil)
	}
	r.current.Store(idx)

	r.listenersMu.RLock()
	listeners := append([]func(*Index){}, r.listeners...)
	r.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(idx)
	}
}

// Reload reads the source and publishes a new generation. On failure the
// previous generation stays in place and a *LoadError is returned.
func (r *Registry) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	raw, err := r.source.Read(ctx)
	if err != nil {
		return &LoadError{Source: r.source.String(), Err: err}
	}

	idx, err := Parse(raw)
	if err != nil {
		return &LoadError{Source: r.source.String(), Err: err}
	}

	r.Replace(idx)
	r.loaded.Store(true)
	logging.Info("Registry", "Loaded %d application configurations from %s", idx.Len(), r.source)
	return nil
}
