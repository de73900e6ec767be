package generic

import (
	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/schema"
)

// Record is a schema-agnostic record value: field values stored by position.
type Record struct {
	schema *schema.RecordSchema
	values []any
}

// NewRecord creates a record of s with every field set to nil.
func NewRecord(s *schema.RecordSchema) *Record {
	return &Record{schema: s, values: make([]any, s.Len())}
}

// Schema returns the record schema.
func (r *Record) Schema() *schema.RecordSchema { return r.schema }

// Get returns the value at field position pos.
func (r *Record) Get(pos int) any { return r.values[pos] }

// Put stores v at field position pos.
func (r *Record) Put(pos int, v any) { r.values[pos] = v }

// GetByName returns the value of the named field.
func (r *Record) GetByName(name string) (any, bool) {
	f, ok := r.schema.Field(name)
	if !ok {
		return nil, false
	}
	return r.values[f.Pos], true
}

// PutByName stores v in the named field.
func (r *Record) PutByName(name string, v any) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return baiji.Issuef(baiji.Root().Field(name), baiji.CodeInvalidType, "record %s has no field %s", r.schema.FullName(), name)
	}
	r.values[f.Pos] = v
	return nil
}

// Values returns the field values in position order.
func (r *Record) Values() []any { return r.values }

// Enum is a generic enum value.
type Enum struct {
	Schema *schema.EnumSchema
	Symbol string
}

func (e Enum) String() string { return e.Symbol }
