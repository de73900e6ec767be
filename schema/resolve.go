package schema

import (
	"fmt"

	baiji "github.com/reoring/baiji"
)

// Match is the verdict of resolving a writer schema against a reader schema.
type Match int

const (
	// MatchNone means the reader cannot read the writer.
	MatchNone Match = iota
	// MatchDirect means both sides have the same shape.
	MatchDirect
	// MatchPromote means a numeric promotion is needed somewhere.
	MatchPromote
	// MatchProject means fields are skipped or defaulted, symbols are
	// translated, or union branches are selected.
	MatchProject
)

func (m Match) String() string {
	switch m {
	case MatchDirect:
		return "direct"
	case MatchPromote:
		return "promote"
	case MatchProject:
		return "project"
	}
	return "none"
}

// Promotable reports whether a writer primitive widens to the reader primitive.
func Promotable(writer, reader Type) bool {
	switch writer {
	case Int:
		return reader == Long || reader == Float || reader == Double
	case Long:
		return reader == Float || reader == Double
	case Float:
		return reader == Double
	}
	return false
}

// CanRead reports whether data written under writer can be read as reader.
func CanRead(reader, writer Schema) bool {
	return check(reader, writer, baiji.Root(), map[pair]bool{}) == nil
}

// Resolve is CanRead reporting the first incompatibility as an Issue with the
// reader-side schema path.
func Resolve(writer, reader Schema) error {
	if it := check(reader, writer, baiji.Root(), map[pair]bool{}); it != nil {
		return baiji.Issues{*it}
	}
	return nil
}

func incompatible(p baiji.PathRef, format string, args ...any) *baiji.Issue {
	it := p.Issue(baiji.CodeIncompatible)
	it.Hint = fmt.Sprintf(format, args...)
	return &it
}

func check(r, w Schema, p baiji.PathRef, seen map[pair]bool) *baiji.Issue {
	if r == nil || w == nil {
		return incompatible(p, "missing schema")
	}
	// A writer union is readable when the branch actually written is; at plan
	// time at least one branch must be.
	if wu, ok := w.(*UnionSchema); ok {
		for _, b := range wu.branches {
			if check(r, b, p, seen) == nil {
				return nil
			}
		}
		return incompatible(p, "no branch of writer union is readable as %s", BranchTag(r))
	}
	if ru, ok := r.(*UnionSchema); ok {
		for i, b := range ru.branches {
			if check(b, w, p.Branch(i), seen) == nil {
				return nil
			}
		}
		return incompatible(p, "no branch of reader union can read %s", BranchTag(w))
	}

	switch wt := w.Type(); {
	case wt.IsPrimitive():
		if r.Type() == wt || Promotable(wt, r.Type()) {
			return nil
		}
		return incompatible(p, "%s cannot be read as %s", wt, r.Type())
	case wt == Array:
		ra, ok := r.(*ArraySchema)
		if !ok {
			return incompatible(p, "array cannot be read as %s", r.Type())
		}
		return check(ra.items, w.(*ArraySchema).items, p.Items(), seen)
	case wt == Map:
		rm, ok := r.(*MapSchema)
		if !ok {
			return incompatible(p, "map cannot be read as %s", r.Type())
		}
		return check(rm.values, w.(*MapSchema).values, p.Values(), seen)
	case wt == Enum:
		if r.Type() != Enum {
			return incompatible(p, "enum cannot be read as %s", r.Type())
		}
		// Symbol mismatches surface at decode time.
		return nil
	case wt == Record:
		rr, ok := r.(*RecordSchema)
		if !ok {
			return incompatible(p, "record cannot be read as %s", r.Type())
		}
		k := pair{r, w}
		if seen[k] {
			return nil
		}
		seen[k] = true
		wr := w.(*RecordSchema)
		for _, rf := range rr.fields {
			wf := writerFieldFor(wr, rf)
			if wf == nil {
				if !rf.HasDefault {
					return incompatible(p.Field(rf.Name), "field %s is missing from writer %s and has no default", rf.Name, wr.FullName())
				}
				continue
			}
			if it := check(rf.Schema, wf.Schema, p.Field(rf.Name), seen); it != nil {
				return it
			}
		}
		return nil
	}
	return incompatible(p, "unsupported writer type %s", w.Type())
}

// writerFieldFor finds the writer field feeding reader field rf: same name,
// one of the reader's aliases, or a writer field aliased to the reader name.
func writerFieldFor(w *RecordSchema, rf *Field) *Field {
	if f, ok := w.byName[rf.Name]; ok {
		return f
	}
	for _, a := range rf.Aliases {
		if f, ok := w.byName[a]; ok {
			return f
		}
	}
	for _, f := range w.fields {
		if f.matches(rf.Name) {
			return f
		}
	}
	return nil
}

// ActionKind says what a record reader does with one writer field.
type ActionKind int

const (
	// ActionRead decodes the writer field into a reader field.
	ActionRead ActionKind = iota
	// ActionSkip decodes nothing; the bytes are skipped.
	ActionSkip
)

// FieldAction is the plan for one writer field, in writer order.
type FieldAction struct {
	Kind   ActionKind
	Writer *Field
	Reader *Field // nil for ActionSkip
}

// RecordResolution is the outcome of resolving one record pair.
type RecordResolution struct {
	Writer  *RecordSchema
	Reader  *RecordSchema
	Actions []FieldAction // indexed by writer position
	// Defaults lists reader fields without writer counterpart, in reader order.
	Defaults []*Field
}

// ResolveRecord computes the per-field actions for reading writer data as
// reader. It fails when a matched field pair is incompatible or when a reader
// field has neither a writer counterpart nor a default.
func ResolveRecord(writer, reader *RecordSchema) (*RecordResolution, error) {
	res := &RecordResolution{Writer: writer, Reader: reader, Actions: make([]FieldAction, len(writer.fields))}
	for i, wf := range writer.fields {
		res.Actions[i] = FieldAction{Kind: ActionSkip, Writer: wf}
	}
	for _, rf := range reader.fields {
		wf := writerFieldFor(writer, rf)
		if wf != nil && res.Actions[wf.Pos].Kind == ActionRead {
			// Already claimed by an earlier reader field.
			wf = nil
		}
		if wf == nil {
			if !rf.HasDefault {
				return nil, baiji.Issues{*incompatible(baiji.Root().Field(rf.Name), "field %s is missing from writer %s and has no default", rf.Name, writer.FullName())}
			}
			res.Defaults = append(res.Defaults, rf)
			continue
		}
		if it := check(rf.Schema, wf.Schema, baiji.Root().Field(rf.Name), map[pair]bool{}); it != nil {
			return nil, baiji.Issues{*it}
		}
		res.Actions[wf.Pos] = FieldAction{Kind: ActionRead, Writer: wf, Reader: rf}
	}
	return res, nil
}

// Classify returns the verdict for reading writer data as reader.
func Classify(writer, reader Schema) Match {
	if !CanRead(reader, writer) {
		return MatchNone
	}
	return classify(writer, reader, map[pair]bool{})
}

func classify(w, r Schema, seen map[pair]bool) Match {
	wu, wIsUnion := w.(*UnionSchema)
	ru, rIsUnion := r.(*UnionSchema)
	if wIsUnion || rIsUnion {
		if wIsUnion && rIsUnion && len(wu.branches) == len(ru.branches) {
			m := MatchDirect
			for i := range wu.branches {
				if !CanRead(ru.branches[i], wu.branches[i]) {
					return MatchProject
				}
				m = max(m, classify(wu.branches[i], ru.branches[i], seen))
			}
			return m
		}
		return MatchProject
	}
	switch w.Type() {
	case Array:
		return classify(w.(*ArraySchema).items, r.(*ArraySchema).items, seen)
	case Map:
		return classify(w.(*MapSchema).values, r.(*MapSchema).values, seen)
	case Enum:
		we, re := w.(*EnumSchema), r.(*EnumSchema)
		if len(we.symbols) != len(re.symbols) {
			return MatchProject
		}
		for i := range we.symbols {
			if we.symbols[i] != re.symbols[i] {
				return MatchProject
			}
		}
		return MatchDirect
	case Record:
		k := pair{w, r}
		if seen[k] {
			return MatchDirect
		}
		seen[k] = true
		res, err := ResolveRecord(w.(*RecordSchema), r.(*RecordSchema))
		if err != nil {
			return MatchNone
		}
		m := MatchDirect
		if len(res.Defaults) > 0 {
			m = MatchProject
		}
		for i, a := range res.Actions {
			if a.Kind == ActionSkip || a.Reader.Pos != i {
				m = MatchProject
				continue
			}
			m = max(m, classify(a.Writer.Schema, a.Reader.Schema, seen))
		}
		return m
	}
	if w.Type() == r.Type() {
		return MatchDirect
	}
	return MatchPromote
}
