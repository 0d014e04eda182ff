// Package selector implements the conjunctive label-equality selectors used
// by application definitions, e.g. "app=shop,tier=web".
//
// Only equality requirements are supported. Fragments without an "=" are
// not applied; they are kept in Selector.Ignored so callers can report them.
package selector

import (
	"strings"
)

// Requirement is a single key=value equality requirement.
type Requirement struct {
	Key   string
	Value string
}

// String renders the requirement as key=value.
func (r Requirement) String() string {
	return r.Key + "=" + r.Value
}

// Selector is an ordered set of requirements that must all hold.
type Selector struct {
	Requirements []Requirement

	// Ignored holds the raw fragments that could not be parsed.
	Ignored []string
}

// Parse parses a selector string. Fragments are separated by "," and split
// on the first "=". Empty fragments are dropped, fragments without "=" are
// recorded in Ignored. Parse never fails.
func Parse(s string) Selector {
	var sel Selector
	for _, fragment := range strings.Split(s, ",") {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		key, value, ok := strings.Cut(fragment, "=")
		if !ok {
			sel.Ignored = append(sel.Ignored, fragment)
			continue
		}
		sel.Requirements = append(sel.Requirements, Requirement{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return sel
}

// Matches reports whether every requirement is present in labels with an
// equal value. A selector without requirements matches any label set.
func (s Selector) Matches(labels map[string]string) bool {
	for _, req := range s.Requirements {
		got, ok := labels[req.Key]
		if !ok || got != req.Value {
			return false
		}
	}
	return true
}

// Empty reports whether the selector has no applicable requirements.
func (s Selector) Empty() bool {
	return len(s.Requirements) == 0
}

// String returns the canonical form of the applied requirements in
// declaration order. It is used as the selector signature in the registry
// index, so two selectors differing only in whitespace or malformed
// fragments share a signature.
func (s Selector) String() string {
	parts := make([]string, 0, len(s.Requirements))
	for _, req := range s.Requirements {
		parts = append(parts, req.String())
	}
	return strings.Join(parts, ",")
}

// Matches is a convenience wrapper around Parse(requirements).Matches(labels).
func Matches(requirements string, labels map[string]string) bool {
	return Parse(requirements).Matches(labels)
}
