package baiji

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	eng "github.com/reoring/baiji/internal/engine"
)

// NodeKind enumerates the kinds of a schema-description tree node.
type NodeKind int

const (
	NodeNull NodeKind = iota
	NodeBool
	NodeNumber
	NodeString
	NodeArray
	NodeObject
)

func (k NodeKind) String() string {
	switch k {
	case NodeNull:
		return "null"
	case NodeBool:
		return "bool"
	case NodeNumber:
		return "number"
	case NodeString:
		return "string"
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	}
	return "unknown"
}

// Node is the schema-description tree consumed by schema construction. Any
// JSON-like document model can back it; the schema package never tokenizes
// text itself.
type Node interface {
	Kind() NodeKind
	// Field returns the member named name, or nil when absent or when the node
	// is not an object.
	Field(name string) Node
	// Keys lists object member names in document order.
	Keys() []string
	// Elements lists array elements.
	Elements() []Node
	// Text returns the string value of a string node.
	Text() string
	// Int returns the integral value of a number node.
	Int() (int64, error)
	// Interface converts the subtree to plain Go values: nil, bool, string,
	// json-style numbers (float64 or int64), []any and map[string]any.
	Interface() any
}

// SchemaDriver turns raw schema document bytes into a Node tree. The default
// implementation is backed by goccy/go-json and may be swapped with
// SetSchemaDriver (see source/yamlsrc for YAML documents).
type SchemaDriver interface {
	Parse(data []byte, opt ParseOpt) (Node, error)
	Name() string
}

var (
	schemaDriverMu      sync.RWMutex
	currentSchemaDriver SchemaDriver = defaultSchemaDriver{}
)

// SetSchemaDriver replaces the global schema driver; nil values are ignored.
func SetSchemaDriver(d SchemaDriver) {
	if d == nil {
		return
	}
	schemaDriverMu.Lock()
	currentSchemaDriver = d
	schemaDriverMu.Unlock()
}

// UseDefaultSchemaDriver restores the go-json backed driver.
func UseDefaultSchemaDriver() {
	schemaDriverMu.Lock()
	currentSchemaDriver = defaultSchemaDriver{}
	schemaDriverMu.Unlock()
}

// GetSchemaDriver returns the driver currently installed.
func GetSchemaDriver() SchemaDriver {
	schemaDriverMu.RLock()
	d := currentSchemaDriver
	schemaDriverMu.RUnlock()
	return d
}

// JSONDriver returns the go-json backed driver regardless of the global setting.
func JSONDriver() SchemaDriver { return defaultSchemaDriver{} }

// defaultSchemaDriver wraps the internal go-json token source.
type defaultSchemaDriver struct{}

func (defaultSchemaDriver) Name() string { return "go-json" }

func (defaultSchemaDriver) Parse(data []byte, opt ParseOpt) (Node, error) {
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, IssueAt(Root(), CodeTooBig, fmt.Sprintf("schema document is %d bytes, limit %d", len(data), opt.MaxBytes))
	}
	var sink func(eng.SimpleIssue)
	if opt.OnWarning != nil {
		sink = func(si eng.SimpleIssue) {
			opt.OnWarning(Issue{Path: si.Path, Code: si.Code, Message: si.Message, Offset: -1})
		}
	}
	src := eng.WrapWithEnforcement(eng.NewBytes(data), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		IssueSink:   sink,
	})
	tree, err := eng.BuildTree(src)
	if err != nil {
		var ie eng.IssueError
		if errors.As(err, &ie) {
			return nil, Issues{{Path: ie.Path, Code: ie.Code, Message: ie.Message, Offset: -1}}
		}
		return nil, WrapCause(Root(), CodeSchemaParse, err)
	}
	return engineNode{n: tree}, nil
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

// engineNode adapts the internal ordered tree to Node.
type engineNode struct{ n *eng.Node }

func (e engineNode) Kind() NodeKind {
	switch e.n.Kind {
	case eng.NodeBool:
		return NodeBool
	case eng.NodeNumber:
		return NodeNumber
	case eng.NodeString:
		return NodeString
	case eng.NodeArray:
		return NodeArray
	case eng.NodeObject:
		return NodeObject
	default:
		return NodeNull
	}
}

func (e engineNode) Field(name string) Node {
	if c := e.n.Get(name); c != nil {
		return engineNode{n: c}
	}
	return nil
}

func (e engineNode) Keys() []string { return e.n.Keys }

func (e engineNode) Elements() []Node {
	out := make([]Node, len(e.n.Elems))
	for i, c := range e.n.Elems {
		out[i] = engineNode{n: c}
	}
	return out
}

func (e engineNode) Text() string { return e.n.Str }

func (e engineNode) Int() (int64, error) {
	if e.n.Kind != eng.NodeNumber {
		return 0, fmt.Errorf("not a number: %s", e.Kind())
	}
	return strconv.ParseInt(e.n.Str, 10, 64)
}

func (e engineNode) Interface() any { return toInterface(e.n) }

func toInterface(n *eng.Node) any {
	switch n.Kind {
	case eng.NodeBool:
		return n.Bool
	case eng.NodeNumber:
		return NumberValue(n.Str)
	case eng.NodeString:
		return n.Str
	case eng.NodeArray:
		out := make([]any, len(n.Elems))
		for i, c := range n.Elems {
			out[i] = toInterface(c)
		}
		return out
	case eng.NodeObject:
		out := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			out[k] = toInterface(n.Values[i])
		}
		return out
	default:
		return nil
	}
}

// NumberValue converts JSON number text to int64 when integral and in range,
// float64 otherwise.
func NumberValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return f
}
