package specific

import (
	"reflect"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/schema"
)

// Record is the accessor contract of a bound record type.
type Record interface {
	Schema() schema.Schema
	// Get returns the value of the field at position pos.
	Get(pos int) any
	// Put stores v in the field at position pos. It reports an invalid_type
	// issue when v does not fit the field.
	Put(pos int, v any) error
}

// Enum is implemented by bound enum types. String returns the symbol.
type Enum interface {
	Schema() schema.Schema
	String() string
}

// GetByName returns the named field of r.
func GetByName(r Record, name string) (any, bool) {
	rs, ok := r.Schema().(*schema.RecordSchema)
	if !ok {
		return nil, false
	}
	f, ok := rs.Field(name)
	if !ok {
		return nil, false
	}
	return r.Get(f.Pos), true
}

// PutByName stores v in the named field of r.
func PutByName(r Record, name string, v any) error {
	rs, ok := r.Schema().(*schema.RecordSchema)
	if !ok {
		return baiji.Issuef(baiji.Root(), baiji.CodeInvalidType, "%T has no record schema", r)
	}
	f, ok := rs.Field(name)
	if !ok {
		return baiji.Issuef(baiji.Root().Field(name), baiji.CodeInvalidType, "record %s has no field %s", rs.FullName(), name)
	}
	return r.Put(f.Pos, v)
}

// FieldError builds the issue a Put implementation returns for a value of
// the wrong type.
func FieldError(r Record, pos int, v any) error {
	p := baiji.Root()
	if rs, ok := r.Schema().(*schema.RecordSchema); ok && pos >= 0 && pos < rs.Len() {
		p = p.Field(rs.Fields()[pos].Name)
	}
	return baiji.Issuef(p, baiji.CodeInvalidType, "%T cannot hold %T at position %d", r, v, pos)
}

// isNil reports whether v is nil or a typed nil pointer, map or slice.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
