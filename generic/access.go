package generic

import (
	"fmt"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/schema"
)

// WriterAccess exposes host values to a writer plan.
type WriterAccess interface {
	// Kind classifies v for union branch matching.
	Kind(v any) ValueKind
	// SchemaName returns the full name of the record or enum schema v was
	// built for.
	SchemaName(v any) (string, bool)
	// Field returns the value of field f of record v.
	Field(v any, f *schema.Field) (any, error)
	// EnumOrdinal returns the position of enum value v in s.
	EnumOrdinal(s *schema.EnumSchema, v any) (int, error)
	// Len returns the number of items of an array or entries of a map.
	Len(v any) (int, error)
	// Item returns item i of array v.
	Item(v any, i int) any
	// Range calls fn for every entry of map v.
	Range(v any, fn func(key string, val any) error) error
}

// ReaderAccess builds host values for a reader plan. reuse arguments are
// previous values the access may recycle; nil is always accepted.
type ReaderAccess interface {
	NewRecord(s *schema.RecordSchema, reuse any) (any, error)
	// Field returns the current value of field f, used as reuse for it.
	Field(rec any, f *schema.Field) (any, error)
	SetField(rec any, f *schema.Field, v any) error
	NewEnum(s *schema.EnumSchema, ordinal int) (any, error)
	NewArray(s *schema.ArraySchema, reuse any) (any, error)
	// AppendItem returns arr with item appended.
	AppendItem(arr any, item any) (any, error)
	NewMap(s *schema.MapSchema, reuse any) (any, error)
	SetEntry(m any, key string, v any) error
}

// DataAccess serves both directions.
type DataAccess interface {
	WriterAccess
	ReaderAccess
}

// Access is the generic data access: *Record, Enum, []any, map[string]any
// and Go scalars.
type Access struct{}

var _ DataAccess = Access{}

func typeError(format string, args ...any) error {
	return baiji.Issuef(baiji.Root(), baiji.CodeInvalidType, format, args...)
}

func (Access) Kind(v any) ValueKind { return KindOf(v) }

func (Access) SchemaName(v any) (string, bool) {
	switch x := v.(type) {
	case *Record:
		return x.schema.FullName(), true
	case Enum:
		if x.Schema != nil {
			return x.Schema.FullName(), true
		}
	case *Enum:
		if x != nil && x.Schema != nil {
			return x.Schema.FullName(), true
		}
	}
	return "", false
}

func (Access) Field(v any, f *schema.Field) (any, error) {
	r, ok := v.(*Record)
	if !ok || r == nil {
		return nil, typeError("expected *generic.Record, got %T", v)
	}
	if f.Pos >= len(r.values) {
		return nil, typeError("record %s has no field at position %d", r.schema.FullName(), f.Pos)
	}
	return r.values[f.Pos], nil
}

func (Access) EnumOrdinal(s *schema.EnumSchema, v any) (int, error) {
	var sym string
	switch x := v.(type) {
	case Enum:
		sym = x.Symbol
	case *Enum:
		if x == nil {
			return 0, typeError("nil enum")
		}
		sym = x.Symbol
	case string:
		sym = x
	case fmt.Stringer:
		sym = x.String()
	default:
		return 0, typeError("expected enum %s, got %T", s.FullName(), v)
	}
	i := s.Ordinal(sym)
	if i < 0 {
		return 0, baiji.IssueAt(baiji.Root(), baiji.CodeInvalidEnum, "", "symbol", sym, "enum", s.FullName())
	}
	return i, nil
}

func (Access) Len(v any) (int, error) {
	switch x := v.(type) {
	case []any:
		return len(x), nil
	case map[string]any:
		return len(x), nil
	}
	return 0, typeError("expected []any or map[string]any, got %T", v)
}

func (Access) Item(v any, i int) any { return v.([]any)[i] }

func (Access) Range(v any, fn func(string, any) error) error {
	m, ok := v.(map[string]any)
	if !ok {
		return typeError("expected map[string]any, got %T", v)
	}
	for k, val := range m {
		if err := fn(k, val); err != nil {
			return err
		}
	}
	return nil
}

func (Access) NewRecord(s *schema.RecordSchema, reuse any) (any, error) {
	if r, ok := reuse.(*Record); ok && r != nil && r.schema == s {
		return r, nil
	}
	return NewRecord(s), nil
}

func (Access) SetField(rec any, f *schema.Field, v any) error {
	r, ok := rec.(*Record)
	if !ok {
		return typeError("expected *generic.Record, got %T", rec)
	}
	r.values[f.Pos] = v
	return nil
}

func (Access) NewEnum(s *schema.EnumSchema, ordinal int) (any, error) {
	sym, ok := s.Symbol(ordinal)
	if !ok {
		return nil, baiji.Issuef(baiji.Root(), baiji.CodeInvalidEnum, "enum %s has no symbol at %d", s.FullName(), ordinal)
	}
	return Enum{Schema: s, Symbol: sym}, nil
}

func (Access) NewArray(_ *schema.ArraySchema, reuse any) (any, error) {
	if a, ok := reuse.([]any); ok && a != nil {
		return a[:0], nil
	}
	return []any{}, nil
}

func (Access) AppendItem(arr any, item any) (any, error) {
	a, ok := arr.([]any)
	if !ok {
		return nil, typeError("expected []any, got %T", arr)
	}
	return append(a, item), nil
}

func (Access) NewMap(_ *schema.MapSchema, reuse any) (any, error) {
	if m, ok := reuse.(map[string]any); ok && m != nil {
		clear(m)
		return m, nil
	}
	return map[string]any{}, nil
}

func (Access) SetEntry(m any, key string, v any) error {
	mm, ok := m.(map[string]any)
	if !ok {
		return typeError("expected map[string]any, got %T", m)
	}
	mm[key] = v
	return nil
}

// MatchBranch reports whether v belongs to union branch b: null matches nil,
// scalars match by kind, records and enums by schema full name, arrays any
// sequence and maps any mapping.
func MatchBranch(a WriterAccess, b schema.Schema, v any) bool {
	k := a.Kind(v)
	switch b.Type() {
	case schema.Null:
		return k == KindNull
	case schema.Boolean:
		return k == KindBoolean
	case schema.Int:
		return k == KindInt
	case schema.Long:
		return k == KindLong
	case schema.Float:
		return k == KindFloat
	case schema.Double:
		return k == KindDouble
	case schema.Bytes:
		return k == KindBytes
	case schema.String:
		return k == KindString
	case schema.Datetime:
		return k == KindDatetime
	case schema.Array:
		return k == KindArray
	case schema.Map:
		return k == KindMap
	case schema.Enum, schema.Record:
		if (b.Type() == schema.Enum && k != KindEnum) || (b.Type() == schema.Record && k != KindRecord) {
			return false
		}
		name, ok := a.SchemaName(v)
		return ok && name == b.(schema.NamedSchema).FullName()
	}
	return false
}

// UnionBranch returns the index of the first branch of u that v matches.
// A Go int or uint32 with no long branch to match falls back to the first
// int branch when its value fits in 32 bits.
func UnionBranch(a WriterAccess, u *schema.UnionSchema, v any) (int, error) {
	for i, b := range u.Branches() {
		if MatchBranch(a, b, v) {
			return i, nil
		}
	}
	switch v.(type) {
	case int, uint32:
		if _, ok := asInt(v); ok {
			for i, b := range u.Branches() {
				if b.Type() == schema.Int {
					return i, nil
				}
			}
		}
	}
	return -1, baiji.Issuef(baiji.Root(), baiji.CodeNoUnionBranch, "no branch of %s matches %s value %T", u, a.Kind(v), v)
}
