package schema

import (
	baiji "github.com/reoring/baiji"
)

// ArraySchema describes a sequence of items sharing one schema.
type ArraySchema struct {
	base
	items Schema
}

// NewArray creates an array schema; items is required.
func NewArray(items Schema, props Props) (*ArraySchema, error) {
	if items == nil {
		return nil, baiji.IssueAt(baiji.Root(), baiji.CodeMissingAttribute, "array requires an item schema", "attribute", "items")
	}
	return &ArraySchema{base: base{typ: Array, props: props.clone()}, items: items}, nil
}

// Items returns the item schema.
func (s *ArraySchema) Items() Schema { return s.items }

func (s *ArraySchema) CanRead(w Schema) bool        { return CanRead(s, w) }
func (s *ArraySchema) Equal(o Schema) bool          { return Equal(s, o) }
func (s *ArraySchema) String() string               { return toString(s) }
func (s *ArraySchema) MarshalJSON() ([]byte, error) { return marshal(s) }

// MapSchema describes string-keyed maps whose values share one schema.
type MapSchema struct {
	base
	values Schema
}

// NewMap creates a map schema; values is required.
func NewMap(values Schema, props Props) (*MapSchema, error) {
	if values == nil {
		return nil, baiji.IssueAt(baiji.Root(), baiji.CodeMissingAttribute, "map requires a value schema", "attribute", "values")
	}
	return &MapSchema{base: base{typ: Map, props: props.clone()}, values: values}, nil
}

// Values returns the value schema.
func (s *MapSchema) Values() Schema { return s.values }

func (s *MapSchema) CanRead(w Schema) bool        { return CanRead(s, w) }
func (s *MapSchema) Equal(o Schema) bool          { return Equal(s, o) }
func (s *MapSchema) String() string               { return toString(s) }
func (s *MapSchema) MarshalJSON() ([]byte, error) { return marshal(s) }

// UnionSchema is an ordered set of alternative branches; the branch index is
// written before the value.
type UnionSchema struct {
	base
	branches []Schema
	byTag    map[string]int
}

// NewUnion creates a union. Branches must not be unions themselves and must be
// distinguishable by BranchTag.
func NewUnion(branches []Schema, props Props) (*UnionSchema, error) {
	u := &UnionSchema{base: base{typ: Union, props: props.clone()}, byTag: make(map[string]int, len(branches))}
	var iss baiji.Issues
	for i, b := range branches {
		p := baiji.Root().Branch(i)
		if b == nil {
			iss = append(iss, p.Issue(baiji.CodeMissingAttribute, "attribute", "type"))
			continue
		}
		if b.Type() == Union {
			it := p.Issue(baiji.CodeInvalidSchema)
			it.Hint = "unions may not immediately contain other unions"
			iss = append(iss, it)
			continue
		}
		tag := BranchTag(b)
		if j, dup := u.byTag[tag]; dup {
			it := p.Issue(baiji.CodeInvalidSchema, "tag", tag, "other", j)
			it.Hint = "duplicate union branch " + tag
			iss = append(iss, it)
			continue
		}
		u.byTag[tag] = i
	}
	if len(iss) > 0 {
		return nil, iss
	}
	u.branches = append([]Schema(nil), branches...)
	return u, nil
}

// BranchTag is the lightweight tag that distinguishes union branches: the type
// name for unnamed schemas, the full name for named ones.
func BranchTag(s Schema) string {
	if n, ok := s.(NamedSchema); ok {
		return n.FullName()
	}
	return s.Type().String()
}

// Branches returns the branch schemas in declaration order.
func (s *UnionSchema) Branches() []Schema { return s.branches }

// Len returns the number of branches.
func (s *UnionSchema) Len() int { return len(s.branches) }

// Branch returns branch i.
func (s *UnionSchema) Branch(i int) Schema { return s.branches[i] }

// IndexOf returns the branch index carrying tag, or -1.
func (s *UnionSchema) IndexOf(tag string) int {
	if i, ok := s.byTag[tag]; ok {
		return i
	}
	return -1
}

func (s *UnionSchema) CanRead(w Schema) bool        { return CanRead(s, w) }
func (s *UnionSchema) Equal(o Schema) bool          { return Equal(s, o) }
func (s *UnionSchema) String() string               { return toString(s) }
func (s *UnionSchema) MarshalJSON() ([]byte, error) { return marshal(s) }
