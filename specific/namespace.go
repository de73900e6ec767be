package specific

import (
	"fmt"
	"sync"
)

// EnumFactory returns the bound value of an enum symbol.
type EnumFactory func(symbol string) (any, error)

// Namespace maps schema full names to constructors of bound types. Lookups
// that miss fall through to the fallback namespaces in order.
type Namespace struct {
	mu        sync.RWMutex
	fallbacks []*Namespace
	records   map[string]func() Record
	enums     map[string]EnumFactory
}

// Global is the default Namespace.
var Global = NewNamespace()

// NewNamespace creates a namespace layered on top of fallbacks.
func NewNamespace(fallbacks ...*Namespace) *Namespace {
	return &Namespace{
		fallbacks: fallbacks,
		records:   map[string]func() Record{},
		enums:     map[string]EnumFactory{},
	}
}

// RegisterRecord adds the constructor of the record type named fullName. It
// panics when the name is already registered in this namespace.
func (n *Namespace) RegisterRecord(fullName string, ctor func() Record) {
	if ctor == nil {
		panic(fmt.Errorf("nil constructor for record %s", fullName))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, found := n.records[fullName]; found {
		panic(fmt.Errorf("record %s already registered", fullName))
	}
	n.records[fullName] = ctor
}

// RegisterEnum adds the factory of the enum type named fullName. It panics
// when the name is already registered in this namespace.
func (n *Namespace) RegisterEnum(fullName string, factory EnumFactory) {
	if factory == nil {
		panic(fmt.Errorf("nil factory for enum %s", fullName))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, found := n.enums[fullName]; found {
		panic(fmt.Errorf("enum %s already registered", fullName))
	}
	n.enums[fullName] = factory
}

// AddFallbacks appends namespaces to the fallback list.
func (n *Namespace) AddFallbacks(fallbacks ...*Namespace) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fallbacks = append(n.fallbacks, fallbacks...)
}

// LookupRecord finds the record constructor for fullName.
func (n *Namespace) LookupRecord(fullName string) (func() Record, bool) {
	n.mu.RLock()
	ctor, ok := n.records[fullName]
	fallbacks := n.fallbacks
	n.mu.RUnlock()
	if ok {
		return ctor, true
	}
	for _, f := range fallbacks {
		if ctor, ok := f.LookupRecord(fullName); ok {
			return ctor, true
		}
	}
	return nil, false
}

// LookupEnum finds the enum factory for fullName.
func (n *Namespace) LookupEnum(fullName string) (EnumFactory, bool) {
	n.mu.RLock()
	f, ok := n.enums[fullName]
	fallbacks := n.fallbacks
	n.mu.RUnlock()
	if ok {
		return f, true
	}
	for _, fb := range fallbacks {
		if f, ok := fb.LookupEnum(fullName); ok {
			return f, true
		}
	}
	return nil, false
}

// Count returns the number of constructors reachable through n. Names
// present in several namespaces are counted more than once.
func (n *Namespace) Count() int {
	n.mu.RLock()
	size := len(n.records) + len(n.enums)
	fallbacks := n.fallbacks
	n.mu.RUnlock()
	for _, f := range fallbacks {
		size += f.Count()
	}
	return size
}
