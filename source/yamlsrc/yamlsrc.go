// Package yamlsrc reads schema documents written in YAML. It exposes the
// document as a baiji.Node so schema construction stays format agnostic.
package yamlsrc

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	baiji "github.com/reoring/baiji"
)

// Driver is a baiji.SchemaDriver for YAML documents.
type Driver struct{}

var _ baiji.SchemaDriver = Driver{}

// New returns the YAML driver.
func New() Driver { return Driver{} }

func (Driver) Name() string { return "yaml.v3" }

// Parse decodes the first YAML document of data. Duplicate mapping keys are
// handled per opt.Strictness.OnDuplicateKey.
func (Driver) Parse(data []byte, opt baiji.ParseOpt) (baiji.Node, error) {
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, baiji.Issuef(baiji.Root(), baiji.CodeTooBig, "schema document is %d bytes, limit %d", len(data), opt.MaxBytes)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, baiji.WrapCause(baiji.Root(), baiji.CodeSchemaParse, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, baiji.IssueAt(baiji.Root(), baiji.CodeSchemaParse, "empty YAML document")
	}
	c := checker{opt: opt}
	if err := c.check(root.Content[0], "", 1); err != nil {
		return nil, err
	}
	return node{n: resolveAlias(root.Content[0])}, nil
}

type checker struct {
	opt baiji.ParseOpt
}

// check walks the document once to enforce depth and duplicate-key rules.
// ptr is the JSON pointer of n within the document.
func (c checker) check(n *yaml.Node, ptr string, depth int) error {
	n = resolveAlias(n)
	if c.opt.MaxDepth > 0 && depth > c.opt.MaxDepth {
		return c.issue(ptr, baiji.CodeTooBig, fmt.Sprintf("document nesting exceeds %d", c.opt.MaxDepth))
	}
	switch n.Kind {
	case yaml.MappingNode:
		first := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			kp := ptr + "/" + escape(k.Value)
			if line, dup := first[k.Value]; dup {
				hint := fmt.Sprintf("duplicate key %q at line %d (first at line %d)", k.Value, k.Line, line)
				switch c.opt.Strictness.OnDuplicateKey {
				case baiji.Error:
					return c.issue(kp, baiji.CodeDuplicateKey, hint, "key", k.Value)
				case baiji.Warn:
					if c.opt.OnWarning != nil {
						c.opt.OnWarning(c.issue(kp, baiji.CodeDuplicateKey, hint, "key", k.Value).(baiji.Issues)[0])
					}
				}
			} else {
				first[k.Value] = k.Line
			}
			if err := c.check(n.Content[i+1], kp, depth+1); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, e := range n.Content {
			if err := c.check(e, ptr+"/"+strconv.Itoa(i), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (checker) issue(ptr, code, hint string, kv ...any) error {
	it := baiji.Root().Issue(code, kv...)
	if ptr != "" {
		it.Path = ptr
	}
	it.Hint = hint
	return baiji.Issues{it}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escape(key string) string { return pointerEscaper.Replace(key) }

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// node adapts a yaml.Node to baiji.Node. For duplicate keys the last value
// wins, as in the JSON driver.
type node struct{ n *yaml.Node }

func (y node) Kind() baiji.NodeKind {
	switch y.n.Kind {
	case yaml.MappingNode:
		return baiji.NodeObject
	case yaml.SequenceNode:
		return baiji.NodeArray
	case yaml.ScalarNode:
		switch y.n.ShortTag() {
		case "!!null":
			return baiji.NodeNull
		case "!!bool":
			return baiji.NodeBool
		case "!!int", "!!float":
			return baiji.NodeNumber
		}
		return baiji.NodeString
	}
	return baiji.NodeNull
}

func (y node) Field(name string) baiji.Node {
	if y.n.Kind != yaml.MappingNode {
		return nil
	}
	var found *yaml.Node
	for i := 0; i+1 < len(y.n.Content); i += 2 {
		if y.n.Content[i].Value == name {
			found = y.n.Content[i+1]
		}
	}
	if found == nil {
		return nil
	}
	return node{n: resolveAlias(found)}
}

func (y node) Keys() []string {
	if y.n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(y.n.Content)/2)
	seen := make(map[string]bool, len(y.n.Content)/2)
	for i := 0; i+1 < len(y.n.Content); i += 2 {
		k := y.n.Content[i].Value
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func (y node) Elements() []baiji.Node {
	if y.n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]baiji.Node, len(y.n.Content))
	for i, c := range y.n.Content {
		out[i] = node{n: resolveAlias(c)}
	}
	return out
}

func (y node) Text() string {
	if y.n.Kind != yaml.ScalarNode {
		return ""
	}
	return y.n.Value
}

func (y node) Int() (int64, error) {
	if y.Kind() != baiji.NodeNumber {
		return 0, fmt.Errorf("not a number: %s", y.Kind())
	}
	return strconv.ParseInt(y.n.Value, 0, 64)
}

func (y node) Interface() any {
	switch y.Kind() {
	case baiji.NodeNull:
		return nil
	case baiji.NodeBool:
		var b bool
		if err := y.n.Decode(&b); err != nil {
			return y.n.Value
		}
		return b
	case baiji.NodeNumber:
		if i, err := strconv.ParseInt(y.n.Value, 0, 64); err == nil {
			return i
		}
		var f float64
		if err := y.n.Decode(&f); err != nil {
			return y.n.Value
		}
		return f
	case baiji.NodeString:
		return y.n.Value
	case baiji.NodeArray:
		elems := y.Elements()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = e.Interface()
		}
		return out
	case baiji.NodeObject:
		keys := y.Keys()
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k] = y.Field(k).Interface()
		}
		return out
	}
	return nil
}
