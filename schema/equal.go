package schema

import (
	"reflect"
)

// pair keys recursion guards on (a, b) schema pairs.
type pair struct{ a, b Schema }

// Equal reports structural equality of two schemas, properties included.
// Named schemas compare by full name and then by members; cycles through
// recursive records are followed once.
func Equal(a, b Schema) bool { return equal(a, b, map[pair]bool{}) }

func equal(a, b Schema, seen map[pair]bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Type() != b.Type() || !a.Props().Equal(b.Props()) {
		return false
	}
	switch x := a.(type) {
	case *PrimitiveSchema:
		return true
	case *ArraySchema:
		return equal(x.items, b.(*ArraySchema).items, seen)
	case *MapSchema:
		return equal(x.values, b.(*MapSchema).values, seen)
	case *UnionSchema:
		y := b.(*UnionSchema)
		if len(x.branches) != len(y.branches) {
			return false
		}
		for i := range x.branches {
			if !equal(x.branches[i], y.branches[i], seen) {
				return false
			}
		}
		return true
	case *EnumSchema:
		y := b.(*EnumSchema)
		return x.FullName() == y.FullName() && x.def == y.def && reflect.DeepEqual(x.symbols, y.symbols)
	case *RecordSchema:
		y := b.(*RecordSchema)
		if x.FullName() != y.FullName() || len(x.fields) != len(y.fields) {
			return false
		}
		k := pair{a, b}
		if seen[k] {
			return true
		}
		seen[k] = true
		for i, f := range x.fields {
			g := y.fields[i]
			if f.Name != g.Name || f.HasDefault != g.HasDefault || !f.Props.Equal(g.Props) {
				return false
			}
			if f.HasDefault && !reflect.DeepEqual(f.Default, g.Default) {
				return false
			}
			if !equal(f.Schema, g.Schema, seen) {
				return false
			}
		}
		return true
	}
	return false
}
