package schema

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// jsonWriter renders schemas. Named schemas are written in full the first
// time and by name afterwards, which keeps recursive schemas finite.
type jsonWriter struct {
	buf       *bytes.Buffer
	written   map[string]bool
	canonical bool
}

func marshal(s Schema) ([]byte, error) {
	w := &jsonWriter{buf: &bytes.Buffer{}, written: map[string]bool{}}
	if err := w.schema(s, ""); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

func toString(s Schema) string {
	b, err := marshal(s)
	if err != nil {
		return "<" + s.Type().String() + ": " + err.Error() + ">"
	}
	return string(b)
}

// Canonical returns the parsing canonical form of s: full names, no
// documentation, aliases, defaults or properties, and a fixed key order. Two
// schemas with the same canonical form have the same wire format.
func Canonical(s Schema) string {
	w := &jsonWriter{buf: &bytes.Buffer{}, written: map[string]bool{}, canonical: true}
	if err := w.schema(s, ""); err != nil {
		return ""
	}
	return w.buf.String()
}

func (w *jsonWriter) value(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.buf.Write(b)
	return nil
}

func (w *jsonWriter) key(k string) {
	_ = w.value(k)
	w.buf.WriteByte(':')
}

func (w *jsonWriter) props(p Props) error {
	if w.canonical {
		return nil
	}
	for _, k := range p.Keys() {
		w.buf.WriteByte(',')
		w.key(k)
		if err := w.value(p[k]); err != nil {
			return err
		}
	}
	return nil
}

func (w *jsonWriter) schema(s Schema, encSpace string) error {
	switch x := s.(type) {
	case *PrimitiveSchema:
		if w.canonical || len(x.props) == 0 {
			return w.value(x.typ.String())
		}
		w.buf.WriteString(`{"type":`)
		_ = w.value(x.typ.String())
		if err := w.props(x.props); err != nil {
			return err
		}
		w.buf.WriteByte('}')
		return nil
	case *ArraySchema:
		w.buf.WriteString(`{"type":"array","items":`)
		if err := w.schema(x.items, encSpace); err != nil {
			return err
		}
		if err := w.props(x.props); err != nil {
			return err
		}
		w.buf.WriteByte('}')
		return nil
	case *MapSchema:
		w.buf.WriteString(`{"type":"map","values":`)
		if err := w.schema(x.values, encSpace); err != nil {
			return err
		}
		if err := w.props(x.props); err != nil {
			return err
		}
		w.buf.WriteByte('}')
		return nil
	case *UnionSchema:
		w.buf.WriteByte('[')
		for i, b := range x.branches {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.schema(b, encSpace); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
		return nil
	case *EnumSchema:
		if w.reference(x, encSpace) {
			return nil
		}
		w.header("enum", &x.named, encSpace)
		w.buf.WriteString(`,"symbols":`)
		if err := w.value(x.symbols); err != nil {
			return err
		}
		if !w.canonical && x.def != "" {
			w.buf.WriteString(`,"default":`)
			_ = w.value(x.def)
		}
		if err := w.props(x.props); err != nil {
			return err
		}
		w.buf.WriteByte('}')
		return nil
	case *RecordSchema:
		if w.reference(x, encSpace) {
			return nil
		}
		w.header("record", &x.named, encSpace)
		w.buf.WriteString(`,"fields":[`)
		for i, f := range x.fields {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.field(f, x.name.Namespace); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
		if err := w.props(x.props); err != nil {
			return err
		}
		w.buf.WriteByte('}')
		return nil
	}
	return nil
}

// reference writes a named schema by name when it was already written.
func (w *jsonWriter) reference(n NamedSchema, encSpace string) bool {
	full := n.FullName()
	if !w.written[full] {
		w.written[full] = true
		return false
	}
	name := n.SchemaName()
	if !w.canonical && name.Namespace == encSpace {
		_ = w.value(name.Name)
	} else {
		_ = w.value(full)
	}
	return true
}

func (w *jsonWriter) header(typ string, n *named, encSpace string) {
	if w.canonical {
		w.buf.WriteString(`{"name":`)
		_ = w.value(n.name.Full())
		w.buf.WriteString(`,"type":`)
		_ = w.value(typ)
		return
	}
	w.buf.WriteString(`{"type":`)
	_ = w.value(typ)
	w.buf.WriteString(`,"name":`)
	_ = w.value(n.name.Name)
	if n.name.Namespace != "" && n.name.Namespace != encSpace {
		w.buf.WriteString(`,"namespace":`)
		_ = w.value(n.name.Namespace)
	}
	if n.doc != "" {
		w.buf.WriteString(`,"doc":`)
		_ = w.value(n.doc)
	}
	if len(n.aliases) > 0 {
		list := make([]string, len(n.aliases))
		for i, a := range n.aliases {
			list[i] = a.Full()
		}
		w.buf.WriteString(`,"aliases":`)
		_ = w.value(list)
	}
}

func (w *jsonWriter) field(f *Field, encSpace string) error {
	w.buf.WriteString(`{"name":`)
	_ = w.value(f.Name)
	w.buf.WriteString(`,"type":`)
	if err := w.schema(f.Schema, encSpace); err != nil {
		return err
	}
	if !w.canonical {
		if f.HasDefault {
			w.buf.WriteString(`,"default":`)
			if err := w.value(f.Default); err != nil {
				return err
			}
		}
		if f.Doc != "" {
			w.buf.WriteString(`,"doc":`)
			_ = w.value(f.Doc)
		}
		if f.Order != "" {
			w.buf.WriteString(`,"order":`)
			_ = w.value(f.Order)
		}
		if len(f.Aliases) > 0 {
			w.buf.WriteString(`,"aliases":`)
			_ = w.value(f.Aliases)
		}
		if err := w.props(f.Props); err != nil {
			return err
		}
	}
	w.buf.WriteByte('}')
	return nil
}
