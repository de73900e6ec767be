package schema

import (
	"fmt"

	baiji "github.com/reoring/baiji"
)

// Parse builds a schema from a document using the installed schema driver and
// the default parse options.
func Parse(data []byte) (Schema, error) {
	return ParseWith(baiji.GetSchemaDriver(), data, baiji.DefaultParseOpt())
}

// ParseString is Parse for string literals.
func ParseString(text string) (Schema, error) { return Parse([]byte(text)) }

// MustParse is ParseString that panics on error. It is meant for tests and
// package-level schema variables.
func MustParse(text string) Schema {
	s, err := ParseString(text)
	if err != nil {
		panic(fmt.Sprintf("schema: MustParse: %v", err))
	}
	return s
}

// ParseWith builds a schema using driver d.
func ParseWith(d baiji.SchemaDriver, data []byte, opt baiji.ParseOpt) (Schema, error) {
	node, err := d.Parse(data, opt)
	if err != nil {
		return nil, err
	}
	return ParseNode(node, NewNames())
}

// ParseNode builds a schema from a description tree. Named schemas are
// registered in names as they are encountered, so a record is visible to its
// own fields and to everything parsed after it. names may be shared across
// calls to let later documents refer to earlier ones.
func ParseNode(node baiji.Node, names *Names) (Schema, error) {
	if names == nil {
		names = NewNames()
	}
	p := &parser{names: names}
	return p.parse(node, "", baiji.Root())
}

type parser struct {
	names *Names
}

var reservedKeys = map[Type]map[string]bool{
	Array:  {"type": true, "items": true},
	Map:    {"type": true, "values": true},
	Enum:   {"type": true, "name": true, "namespace": true, "symbols": true, "default": true, "doc": true, "aliases": true},
	Record: {"type": true, "name": true, "namespace": true, "fields": true, "doc": true, "aliases": true},
}

var reservedFieldKeys = map[string]bool{"name": true, "type": true, "default": true, "doc": true, "aliases": true, "order": true}

func (p *parser) parse(node baiji.Node, encSpace string, path baiji.PathRef) (Schema, error) {
	if node == nil {
		return nil, baiji.IssueAt(path, baiji.CodeMissingAttribute, "schema expected", "attribute", "type")
	}
	switch node.Kind() {
	case baiji.NodeString:
		return p.parseName(node.Text(), encSpace, path)
	case baiji.NodeArray:
		return p.parseUnion(node, encSpace, path)
	case baiji.NodeObject:
		return p.parseObject(node, encSpace, path)
	}
	return nil, baiji.Issuef(path, baiji.CodeSchemaParse, "schema must be a string, array or object, got %s", node.Kind())
}

func (p *parser) parseName(name, encSpace string, path baiji.PathRef) (Schema, error) {
	if t, ok := ParseType(name); ok && t.IsPrimitive() {
		return NewPrimitive(t, nil)
	}
	if s, ok := p.names.Lookup(name, "", encSpace); ok {
		return s, nil
	}
	return nil, baiji.IssueAt(path, baiji.CodeUnknownType, "", "type", name)
}

func (p *parser) parseUnion(node baiji.Node, encSpace string, path baiji.PathRef) (Schema, error) {
	elems := node.Elements()
	branches := make([]Schema, len(elems))
	for i, e := range elems {
		b, err := p.parse(e, encSpace, path.Branch(i))
		if err != nil {
			return nil, err
		}
		branches[i] = b
	}
	u, err := NewUnion(branches, nil)
	if err != nil {
		return nil, rebase(err, path)
	}
	return u, nil
}

func (p *parser) parseObject(node baiji.Node, encSpace string, path baiji.PathRef) (Schema, error) {
	tn := node.Field("type")
	if tn == nil {
		return nil, baiji.IssueAt(path, baiji.CodeMissingAttribute, "", "attribute", "type")
	}
	if tn.Kind() != baiji.NodeString {
		// {"type": {...}} and {"type": [...]} wrap another schema.
		return p.parse(tn, encSpace, path)
	}
	typeName := tn.Text()
	t, ok := ParseType(typeName)
	if !ok {
		if s, found := p.names.Lookup(typeName, "", encSpace); found {
			return s, nil
		}
		return nil, baiji.IssueAt(path, baiji.CodeUnknownType, "", "type", typeName)
	}
	props := collectProps(node, reservedKeys[t])
	switch {
	case t.IsPrimitive():
		return NewPrimitive(t, props)
	case t == Array:
		items := node.Field("items")
		if items == nil {
			return nil, baiji.IssueAt(path, baiji.CodeMissingAttribute, "array does not have 'items'", "attribute", "items")
		}
		is, err := p.parse(items, encSpace, path.Items())
		if err != nil {
			return nil, err
		}
		return NewArray(is, props)
	case t == Map:
		values := node.Field("values")
		if values == nil {
			return nil, baiji.IssueAt(path, baiji.CodeMissingAttribute, "map does not have 'values'", "attribute", "values")
		}
		vs, err := p.parse(values, encSpace, path.Values())
		if err != nil {
			return nil, err
		}
		return NewMap(vs, props)
	case t == Enum:
		return p.parseEnum(node, encSpace, path, props)
	case t == Record:
		return p.parseRecord(node, encSpace, path, props)
	}
	return nil, baiji.IssueAt(path, baiji.CodeUnknownType, "", "type", typeName)
}

func (p *parser) parseEnum(node baiji.Node, encSpace string, path baiji.PathRef, props Props) (Schema, error) {
	name, err := p.nameOf(node, encSpace, path)
	if err != nil {
		return nil, err
	}
	sn := node.Field("symbols")
	if sn == nil || sn.Kind() != baiji.NodeArray {
		return nil, baiji.IssueAt(path, baiji.CodeMissingAttribute, "enum "+name.Full()+" does not have 'symbols'", "attribute", "symbols")
	}
	var symbols []string
	for i, e := range sn.Elements() {
		if e.Kind() != baiji.NodeString {
			return nil, baiji.Issuef(path.Symbols().Index(i), baiji.CodeSchemaParse, "enum symbol must be a string")
		}
		symbols = append(symbols, e.Text())
	}
	var def string
	if dn := node.Field("default"); dn != nil {
		if dn.Kind() != baiji.NodeString {
			return nil, baiji.Issuef(path, baiji.CodeSchemaParse, "enum default must be a string")
		}
		def = dn.Text()
	}
	e, err := NewEnum(name, symbols, def, textField(node, "doc"), p.aliasesOf(node, name.Namespace), props)
	if err != nil {
		return nil, rebase(err, path)
	}
	if err := p.names.Add(e); err != nil {
		return nil, rebase(err, path)
	}
	return e, nil
}

func (p *parser) parseRecord(node baiji.Node, encSpace string, path baiji.PathRef, props Props) (Schema, error) {
	name, err := p.nameOf(node, encSpace, path)
	if err != nil {
		return nil, err
	}
	fn := node.Field("fields")
	if fn == nil || fn.Kind() != baiji.NodeArray {
		return nil, baiji.IssueAt(path, baiji.CodeMissingAttribute, "record "+name.Full()+" does not have 'fields'", "attribute", "fields")
	}
	rec, err := NewRecord(name, textField(node, "doc"), p.aliasesOf(node, name.Namespace), props)
	if err != nil {
		return nil, rebase(err, path)
	}
	// Register first: fields may refer to the record itself.
	if err := p.names.Add(rec); err != nil {
		return nil, rebase(err, path)
	}
	elems := fn.Elements()
	fields := make([]*Field, 0, len(elems))
	for i, fe := range elems {
		f, err := p.parseField(fe, name.Namespace, path, i)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := rec.SetFields(fields); err != nil {
		return nil, rebase(err, path)
	}
	return rec, nil
}

func (p *parser) parseField(node baiji.Node, encSpace string, recPath baiji.PathRef, i int) (*Field, error) {
	if node.Kind() != baiji.NodeObject {
		return nil, baiji.Issuef(recPath.Index(i), baiji.CodeSchemaParse, "field must be an object")
	}
	nn := node.Field("name")
	if nn == nil || nn.Kind() != baiji.NodeString || nn.Text() == "" {
		return nil, baiji.IssueAt(recPath.Index(i), baiji.CodeMissingAttribute, "field does not have 'name'", "attribute", "name")
	}
	name := nn.Text()
	fp := recPath.Field(name)
	tn := node.Field("type")
	if tn == nil {
		return nil, baiji.IssueAt(fp, baiji.CodeMissingAttribute, "field "+name+" does not have 'type'", "attribute", "type")
	}
	fs, err := p.parse(tn, encSpace, fp)
	if err != nil {
		return nil, err
	}
	f := &Field{
		Name:    name,
		Pos:     i,
		Schema:  fs,
		Doc:     textField(node, "doc"),
		Order:   textField(node, "order"),
		Aliases: stringList(node.Field("aliases")),
		Props:   collectProps(node, reservedFieldKeys),
	}
	if dn := node.Field("default"); dn != nil {
		f.Default = dn.Interface()
		f.HasDefault = true
	}
	return f, nil
}

func (p *parser) nameOf(node baiji.Node, encSpace string, path baiji.PathRef) (Name, error) {
	nn := node.Field("name")
	if nn == nil || nn.Kind() != baiji.NodeString || nn.Text() == "" {
		return Name{}, baiji.IssueAt(path, baiji.CodeMissingAttribute, "named schema does not have 'name'", "attribute", "name")
	}
	return NewName(nn.Text(), textField(node, "namespace"), encSpace), nil
}

func (p *parser) aliasesOf(node baiji.Node, space string) []Name {
	list := stringList(node.Field("aliases"))
	if len(list) == 0 {
		return nil
	}
	out := make([]Name, len(list))
	for i, a := range list {
		out[i] = NewName(a, "", space)
	}
	return out
}

func textField(node baiji.Node, key string) string {
	if n := node.Field(key); n != nil && n.Kind() == baiji.NodeString {
		return n.Text()
	}
	return ""
}

func stringList(node baiji.Node) []string {
	if node == nil || node.Kind() != baiji.NodeArray {
		return nil
	}
	var out []string
	for _, e := range node.Elements() {
		if e.Kind() == baiji.NodeString {
			out = append(out, e.Text())
		}
	}
	return out
}

func collectProps(node baiji.Node, reserved map[string]bool) Props {
	var props Props
	for _, k := range node.Keys() {
		if k == "type" || reserved[k] {
			continue
		}
		if props == nil {
			props = Props{}
		}
		props[k] = node.Field(k).Interface()
	}
	return props
}

// rebase moves root-relative issues produced by constructors under path.
func rebase(err error, path baiji.PathRef) error {
	iss, ok := baiji.AsIssues(err)
	if !ok || path.Pointer() == "/" {
		return err
	}
	out := make(baiji.Issues, len(iss))
	for i, it := range iss {
		if it.Path == "/" {
			it.Path = path.Pointer()
		} else {
			it.Path = path.Pointer() + it.Path
		}
		out[i] = it
	}
	return out
}
