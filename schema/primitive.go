package schema

import (
	baiji "github.com/reoring/baiji"
)

// PrimitiveSchema describes null, boolean, int, long, float, double, bytes,
// string and datetime values.
type PrimitiveSchema struct {
	base
}

// NewPrimitive creates a primitive schema of type t.
func NewPrimitive(t Type, props Props) (*PrimitiveSchema, error) {
	if !t.IsPrimitive() {
		return nil, baiji.Issuef(baiji.Root(), baiji.CodeInvalidSchema, "%s is not a primitive type", t)
	}
	return &PrimitiveSchema{base: base{typ: t, props: props.clone()}}, nil
}

// Primitive returns a property-less primitive schema and panics when t is not
// primitive. It is meant for building schemas in code.
func Primitive(t Type) *PrimitiveSchema {
	s, err := NewPrimitive(t, nil)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *PrimitiveSchema) CanRead(w Schema) bool        { return CanRead(s, w) }
func (s *PrimitiveSchema) Equal(o Schema) bool          { return Equal(s, o) }
func (s *PrimitiveSchema) String() string               { return toString(s) }
func (s *PrimitiveSchema) MarshalJSON() ([]byte, error) { return marshal(s) }
