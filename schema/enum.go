package schema

import (
	baiji "github.com/reoring/baiji"
)

// EnumSchema is a named set of symbols. On the wire a value is the zero-based
// index of its symbol in the writer's symbol list.
type EnumSchema struct {
	named
	symbols []string
	index   map[string]int
	def     string
}

// NewEnum creates an enum schema. Symbols must be non-empty and distinct; def,
// when set, must be one of them.
func NewEnum(name Name, symbols []string, def string, doc string, aliases []Name, props Props) (*EnumSchema, error) {
	if name.Name == "" {
		return nil, baiji.IssueAt(baiji.Root(), baiji.CodeMissingAttribute, "enum requires a name", "attribute", "name")
	}
	if len(symbols) == 0 {
		return nil, baiji.IssueAt(baiji.Root(), baiji.CodeMissingAttribute, "enum "+name.Full()+" has no symbols", "attribute", "symbols")
	}
	e := &EnumSchema{
		named:   named{base: base{typ: Enum, props: props.clone()}, name: name, aliases: aliases, doc: doc},
		symbols: append([]string(nil), symbols...),
		index:   make(map[string]int, len(symbols)),
		def:     def,
	}
	for i, sym := range symbols {
		if sym == "" {
			return nil, baiji.Issuef(baiji.Root().Symbols().Index(i), baiji.CodeInvalidSchema, "empty symbol in enum %s", name.Full())
		}
		if _, dup := e.index[sym]; dup {
			return nil, baiji.Issuef(baiji.Root().Symbols().Index(i), baiji.CodeInvalidSchema, "duplicate symbol %q in enum %s", sym, name.Full())
		}
		e.index[sym] = i
	}
	if def != "" {
		if _, ok := e.index[def]; !ok {
			return nil, baiji.Issuef(baiji.Root(), baiji.CodeInvalidSchema, "default %q is not a symbol of enum %s", def, name.Full())
		}
	}
	return e, nil
}

// Symbols returns the symbols in declaration order.
func (s *EnumSchema) Symbols() []string { return s.symbols }

// Len returns the number of symbols.
func (s *EnumSchema) Len() int { return len(s.symbols) }

// Ordinal returns the index of symbol, or -1.
func (s *EnumSchema) Ordinal(symbol string) int {
	if i, ok := s.index[symbol]; ok {
		return i
	}
	return -1
}

// Symbol returns the symbol at ordinal i.
func (s *EnumSchema) Symbol(i int) (string, bool) {
	if i < 0 || i >= len(s.symbols) {
		return "", false
	}
	return s.symbols[i], true
}

// Default returns the declared default symbol.
func (s *EnumSchema) Default() (string, bool) { return s.def, s.def != "" }

func (s *EnumSchema) CanRead(w Schema) bool        { return CanRead(s, w) }
func (s *EnumSchema) Equal(o Schema) bool          { return Equal(s, o) }
func (s *EnumSchema) String() string               { return toString(s) }
func (s *EnumSchema) MarshalJSON() ([]byte, error) { return marshal(s) }
