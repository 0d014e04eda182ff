package registry

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"selfscan/internal/selector"
	"selfscan/pkg/logging"
)

// Index is one fully built generation of application definitions.
// An Index is never modified after Parse or NewIndex returns it.
type Index struct {
	byKey       map[Key]*ApplicationDefinition
	byNamespace map[string][]*ApplicationDefinition
}

// NewIndex builds an index from definitions. Definitions without
// ScanOnDeploy are discarded. When two definitions share a key the later one
// wins.
func NewIndex(defs []ApplicationDefinition) *Index {
	idx := &Index{
		byKey:       make(map[Key]*ApplicationDefinition),
		byNamespace: make(map[string][]*ApplicationDefinition),
	}

	for i := range defs {
		def := defs[i]
		if !def.ScanOnDeploy {
			continue
		}
		if strings.TrimSpace(def.Name) == "" || strings.TrimSpace(def.Namespace) == "" {
			logging.Warn("Registry", "Skipping application definition without name or namespace (name=%q, namespace=%q)",
				def.Name, def.Namespace)
			continue
		}

		def.selector = selector.Parse(def.LabelSelector)
		if len(def.selector.Ignored) > 0 {
			logging.Warn("Registry", "Application %q has malformed selector fragments that are ignored: %s",
				def.Name, strings.Join(def.selector.Ignored, ", "))
		}

		key := def.Key()
		if prev, exists := idx.byKey[key]; exists {
			logging.Warn("Registry", "Application %q replaces %q for key %s", def.Name, prev.Name, key)
		}
		idx.byKey[key] = &def
		logging.Debug("Registry", "Loaded application config: %s -> %s", def.Name, key)
	}

	for _, def := range idx.byKey {
		idx.byNamespace[def.Namespace] = append(idx.byNamespace[def.Namespace], def)
	}
	for _, defs := range idx.byNamespace {
		sort.Slice(defs, func(i, j int) bool {
			if defs[i].Name != defs[j].Name {
				return defs[i].Name < defs[j].Name
			}
			return defs[i].selector.String() < defs[j].selector.String()
		})
	}

	return idx
}

// Parse parses an applications document. Empty input yields an empty index.
func Parse(raw []byte) (*Index, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return NewIndex(nil), nil
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse applications document: %w", err)
	}

	return NewIndex(doc.Applications), nil
}

// Len returns the number of indexed definitions.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byKey)
}

// Get returns the definition stored under key.
func (idx *Index) Get(key Key) (*ApplicationDefinition, bool) {
	if idx == nil {
		return nil, false
	}
	def, ok := idx.byKey[key]
	return def, ok
}

// Lookup returns the first definition in namespace whose selector matches
// labels. Candidates are tried in lexical order of application name, so the
// outcome is deterministic when several selectors overlap.
func (idx *Index) Lookup(namespace string, labels map[string]string) (*ApplicationDefinition, bool) {
	if idx == nil {
		return nil, false
	}
	for _, def := range idx.byNamespace[namespace] {
		if def.selector.Matches(labels) {
			return def, true
		}
	}
	return nil, false
}

// Definitions returns all definitions ordered by namespace then name.
func (idx *Index) Definitions() []ApplicationDefinition {
	if idx == nil {
		return nil
	}

	namespaces := make([]string, 0, len(idx.byNamespace))
	for ns := range idx.byNamespace {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	defs := make([]ApplicationDefinition, 0, len(idx.byKey))
	for _, ns := range namespaces {
		for _, def := range idx.byNamespace[ns] {
			defs = append(defs, *def)
		}
	}
	return defs
}
