package schema

import (
	"reflect"
	"sort"
)

// Schema is a node of the schema variant tree. The set of implementations is
// closed: *PrimitiveSchema, *ArraySchema, *MapSchema, *UnionSchema,
// *EnumSchema and *RecordSchema.
type Schema interface {
	// Type returns the schema kind.
	Type() Type
	// Props returns the property bag. It never affects codec behavior.
	Props() Props
	// CanRead reports whether data written under writer can be read as this
	// schema.
	CanRead(writer Schema) bool
	// Equal reports structural equality, properties included.
	Equal(other Schema) bool
	// String renders the schema as JSON.
	String() string
	// MarshalJSON renders the schema as JSON.
	MarshalJSON() ([]byte, error)

	sealed()
}

// NamedSchema is implemented by record and enum schemas.
type NamedSchema interface {
	Schema
	SchemaName() Name
	// FullName is the dotted namespace-qualified name.
	FullName() string
	Aliases() []Name
	Doc() string
}

// Props is an unordered bag of JSON-valued properties.
type Props map[string]any

// Get returns a property value.
func (p Props) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Keys returns property names in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal compares two property bags; nil and empty are equal.
func (p Props) Equal(o Props) bool {
	if len(p) == 0 && len(o) == 0 {
		return true
	}
	return reflect.DeepEqual(map[string]any(p), map[string]any(o))
}

func (p Props) clone() Props {
	if len(p) == 0 {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// base carries what every schema variant shares.
type base struct {
	typ   Type
	props Props
}

func (b *base) Type() Type   { return b.typ }
func (b *base) Props() Props { return b.props }
func (b *base) sealed()      {}
