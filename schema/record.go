package schema

import (
	baiji "github.com/reoring/baiji"
)

// Field is a record member. Pos is the zero-based declaration index and also
// the position of the field's value on the wire.
type Field struct {
	Name       string
	Pos        int
	Schema     Schema
	Default    any // JSON value; meaningful only when HasDefault
	HasDefault bool
	Aliases    []string
	Doc        string
	Order      string // "ascending" (default), "descending" or "ignore"
	Props      Props
}

// matches reports whether name designates this field, aliases included.
func (f *Field) matches(name string) bool {
	if f.Name == name {
		return true
	}
	for _, a := range f.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// RecordSchema is a named, ordered list of fields.
type RecordSchema struct {
	named
	fields []*Field
	byName map[string]*Field
	isSet  bool
}

// NewRecord creates a record without fields. Fields are attached with
// SetFields, which makes it possible to register the record before its field
// schemas (possibly referring to the record itself) are built.
func NewRecord(name Name, doc string, aliases []Name, props Props) (*RecordSchema, error) {
	if name.Name == "" {
		return nil, baiji.IssueAt(baiji.Root(), baiji.CodeMissingAttribute, "record requires a name", "attribute", "name")
	}
	return &RecordSchema{named: named{base: base{typ: Record, props: props.clone()}, name: name, aliases: aliases, doc: doc}}, nil
}

// SetFields attaches the field list and assigns positions. It may be called
// once.
func (s *RecordSchema) SetFields(fields []*Field) error {
	if s.isSet {
		return baiji.Issuef(baiji.Root(), baiji.CodeInvalidSchema, "fields of record %s already set", s.FullName())
	}
	byName := make(map[string]*Field, len(fields))
	out := make([]*Field, len(fields))
	for i, f := range fields {
		if f == nil || f.Name == "" {
			return baiji.IssueAt(baiji.Root().Index(i), baiji.CodeMissingAttribute, "field requires a name", "attribute", "name")
		}
		p := baiji.Root().Field(f.Name)
		if f.Schema == nil {
			return baiji.IssueAt(p, baiji.CodeMissingAttribute, "field "+f.Name+" requires a type", "attribute", "type")
		}
		if _, dup := byName[f.Name]; dup {
			return baiji.Issuef(p, baiji.CodeInvalidSchema, "duplicate field %s in record %s", f.Name, s.FullName())
		}
		cp := *f
		cp.Pos = i
		cp.Aliases = append([]string(nil), f.Aliases...)
		cp.Props = f.Props.clone()
		byName[f.Name] = &cp
		out[i] = &cp
	}
	s.fields = out
	s.byName = byName
	s.isSet = true
	return nil
}

// Fields returns the fields in declaration order.
func (s *RecordSchema) Fields() []*Field { return s.fields }

// Len returns the number of fields.
func (s *RecordSchema) Len() int { return len(s.fields) }

// Field returns the field named name.
func (s *RecordSchema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// FieldByAlias returns the field named name or carrying name as an alias.
func (s *RecordSchema) FieldByAlias(name string) (*Field, bool) {
	if f, ok := s.byName[name]; ok {
		return f, true
	}
	for _, f := range s.fields {
		if f.matches(name) {
			return f, true
		}
	}
	return nil, false
}

func (s *RecordSchema) CanRead(w Schema) bool        { return CanRead(s, w) }
func (s *RecordSchema) Equal(o Schema) bool          { return Equal(s, o) }
func (s *RecordSchema) String() string               { return toString(s) }
func (s *RecordSchema) MarshalJSON() ([]byte, error) { return marshal(s) }
