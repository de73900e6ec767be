package specific

import (
	"fmt"
	"reflect"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/generic"
	"github.com/reoring/baiji/schema"
)

// Access is the specific data access. Records and enums go through their
// accessor contract and the constructors in a Namespace; scalars follow the
// generic rules.
type Access struct {
	ns *Namespace
}

var _ generic.DataAccess = Access{}

// NewAccess creates an access over ns, or Global when ns is nil.
func NewAccess(ns *Namespace) Access {
	if ns == nil {
		ns = Global
	}
	return Access{ns: ns}
}

func (a Access) namespace() *Namespace {
	if a.ns == nil {
		return Global
	}
	return a.ns
}

func typeError(format string, args ...any) error {
	return baiji.Issuef(baiji.Root(), baiji.CodeInvalidType, format, args...)
}

func (Access) Kind(v any) generic.ValueKind {
	switch v.(type) {
	case Record:
		if isNil(v) {
			return generic.KindNull
		}
		return generic.KindRecord
	case Enum:
		return generic.KindEnum
	}
	if k := generic.KindOf(v); k != generic.KindUnknown {
		return k
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return generic.KindArray
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return generic.KindMap
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return generic.KindNull
		}
	}
	return generic.KindUnknown
}

func schemaFullName(s schema.Schema) (string, bool) {
	if n, ok := s.(schema.NamedSchema); ok {
		return n.FullName(), true
	}
	return "", false
}

func (Access) SchemaName(v any) (string, bool) {
	switch x := v.(type) {
	case Record:
		if isNil(v) {
			return "", false
		}
		return schemaFullName(x.Schema())
	case Enum:
		return schemaFullName(x.Schema())
	}
	return generic.Access{}.SchemaName(v)
}

func (Access) Field(v any, f *schema.Field) (any, error) {
	r, ok := v.(Record)
	if !ok || isNil(v) {
		return nil, typeError("expected specific.Record, got %T", v)
	}
	return r.Get(f.Pos), nil
}

func (Access) EnumOrdinal(s *schema.EnumSchema, v any) (int, error) {
	var sym string
	switch x := v.(type) {
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
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	}
	return 0, typeError("expected a slice or map, got %T", v)
}

func (Access) Item(v any, i int) any {
	if x, ok := v.([]any); ok {
		return x[i]
	}
	return reflect.ValueOf(v).Index(i).Interface()
}

func (Access) Range(v any, fn func(string, any) error) error {
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			if err := fn(k, val); err != nil {
				return err
			}
		}
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return typeError("expected a map with string keys, got %T", v)
	}
	it := rv.MapRange()
	for it.Next() {
		if err := fn(it.Key().String(), it.Value().Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (a Access) NewRecord(s *schema.RecordSchema, reuse any) (any, error) {
	if r, ok := reuse.(Record); ok && !isNil(reuse) {
		if name, _ := schemaFullName(r.Schema()); name == s.FullName() {
			return r, nil
		}
	}
	ns := a.namespace()
	if ctor, ok := ns.LookupRecord(s.FullName()); ok {
		return ctor(), nil
	}
	for _, alias := range s.Aliases() {
		if ctor, ok := ns.LookupRecord(alias.Full()); ok {
			return ctor(), nil
		}
	}
	return nil, typeError("no constructor registered for record %s", s.FullName())
}

func (Access) SetField(rec any, f *schema.Field, v any) error {
	r, ok := rec.(Record)
	if !ok {
		return typeError("expected specific.Record, got %T", rec)
	}
	return r.Put(f.Pos, v)
}

// NewEnum uses the registered factory, or returns the symbol string when the
// enum has none.
func (a Access) NewEnum(s *schema.EnumSchema, ordinal int) (any, error) {
	sym, ok := s.Symbol(ordinal)
	if !ok {
		return nil, baiji.Issuef(baiji.Root(), baiji.CodeInvalidEnum, "enum %s has no symbol at %d", s.FullName(), ordinal)
	}
	if f, ok := a.namespace().LookupEnum(s.FullName()); ok {
		return f(sym)
	}
	return sym, nil
}

// NewArray recycles a typed slice found in reuse so that bound fields keep
// their element type; otherwise it starts a []any.
func (Access) NewArray(_ *schema.ArraySchema, reuse any) (any, error) {
	switch x := reuse.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return x[:0], nil
	}
	rv := reflect.ValueOf(reuse)
	if rv.Kind() == reflect.Slice {
		if rv.IsNil() {
			return reflect.MakeSlice(rv.Type(), 0, 0).Interface(), nil
		}
		return rv.Slice(0, 0).Interface(), nil
	}
	return []any{}, nil
}

func (Access) AppendItem(arr any, item any) (any, error) {
	if x, ok := arr.([]any); ok {
		return append(x, item), nil
	}
	rv := reflect.ValueOf(arr)
	if rv.Kind() != reflect.Slice {
		return nil, typeError("expected a slice, got %T", arr)
	}
	iv, err := fit(item, rv.Type().Elem())
	if err != nil {
		return nil, err
	}
	return reflect.Append(rv, iv).Interface(), nil
}

func (Access) NewMap(_ *schema.MapSchema, reuse any) (any, error) {
	switch x := reuse.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		clear(x)
		return x, nil
	}
	rv := reflect.ValueOf(reuse)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		if rv.IsNil() {
			return reflect.MakeMap(rv.Type()).Interface(), nil
		}
		rv.Clear()
		return reuse, nil
	}
	return map[string]any{}, nil
}

func (Access) SetEntry(m any, key string, v any) error {
	if x, ok := m.(map[string]any); ok {
		x[key] = v
		return nil
	}
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		return typeError("expected a map, got %T", m)
	}
	vv, err := fit(v, rv.Type().Elem())
	if err != nil {
		return err
	}
	rv.SetMapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()), vv)
	return nil
}

// fit converts v to a value of type t: assignable values as is, values of a
// named type sharing t's underlying kind by conversion, nil as the zero value.
func fit(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	vv := reflect.ValueOf(v)
	if vv.Type().AssignableTo(t) {
		return vv, nil
	}
	if vv.Kind() == t.Kind() && vv.Type().ConvertibleTo(t) {
		return vv.Convert(t), nil
	}
	return reflect.Value{}, typeError("%T does not fit %s", v, t)
}

// NewWriter builds a writer plan for bound values registered in Global.
func NewWriter(s schema.Schema, opts ...generic.Option) (*generic.Writer, error) {
	return generic.NewWriter(s, NewAccess(nil), opts...)
}

// NewReader builds a reader plan that materializes bound values using the
// constructors in ns (Global when nil).
func NewReader(writer, reader schema.Schema, ns *Namespace, opts ...generic.Option) (*generic.Reader, error) {
	return generic.NewReader(writer, reader, NewAccess(ns), opts...)
}
