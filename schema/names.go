package schema

import (
	baiji "github.com/reoring/baiji"
)

// Names maps full names to named schemas. It is filled during a single
// construction pass and must not be mutated concurrently with lookups; once
// construction is over it is read-only.
type Names struct {
	byName map[string]NamedSchema
	order  []NamedSchema
}

// NewNames creates an empty registry.
func NewNames() *Names {
	return &Names{byName: map[string]NamedSchema{}}
}

// Add registers s. Registering a second schema under an existing full name is
// a schema construction error.
func (n *Names) Add(s NamedSchema) error {
	full := s.FullName()
	if _, found := n.byName[full]; found {
		return baiji.IssueAt(baiji.Root(), baiji.CodeDuplicateName, "", "name", full)
	}
	n.byName[full] = s
	n.order = append(n.order, s)
	return nil
}

// Contains reports whether name is registered.
func (n *Names) Contains(name Name) bool {
	_, ok := n.byName[name.Full()]
	return ok
}

// Get looks up a schema by its full name.
func (n *Names) Get(full string) (NamedSchema, bool) {
	s, ok := n.byName[full]
	return s, ok
}

// Lookup resolves a reference as written in a schema document: name may be
// dotted, otherwise it is qualified by namespace or the enclosing namespace,
// falling back to the null namespace.
func (n *Names) Lookup(name, namespace, enclosing string) (NamedSchema, bool) {
	if s, ok := n.byName[NewName(name, namespace, enclosing).Full()]; ok {
		return s, true
	}
	s, ok := n.byName[name]
	return s, ok
}

// All returns the registered schemas in registration order.
func (n *Names) All() []NamedSchema {
	out := make([]NamedSchema, len(n.order))
	copy(out, n.order)
	return out
}

// Len returns the number of registered schemas.
func (n *Names) Len() int { return len(n.order) }
