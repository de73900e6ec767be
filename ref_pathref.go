package baiji

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/baiji/i18n"
)

// PathRef builds schema paths in a chain-safe way and creates Issues. Paths
// use the JSON Pointer form over the schema document, for example
// /fields/address/items or /branches/1.
type PathRef struct {
	parts []string
}

// Root returns the path of the top-level schema.
func Root() PathRef { return PathRef{} }

// Field descends into a record field.
func (p PathRef) Field(name string) PathRef {
	return p.child("fields", escape(name))
}

// Index appends a positional segment.
func (p PathRef) Index(i int) PathRef { return p.child(strconv.Itoa(i)) }

// Items descends into an array item schema.
func (p PathRef) Items() PathRef { return p.child("items") }

// Values descends into a map value schema.
func (p PathRef) Values() PathRef { return p.child("values") }

// Branch descends into a union branch.
func (p PathRef) Branch(i int) PathRef { return p.child("branches", strconv.Itoa(i)) }

// Symbols descends into an enum symbol list.
func (p PathRef) Symbols() PathRef { return p.child("symbols") }

func (p PathRef) child(seg ...string) PathRef {
	parts := make([]string, 0, len(p.parts)+len(seg))
	parts = append(parts, p.parts...)
	parts = append(parts, seg...)
	return PathRef{parts: parts}
}

// Pointer renders the path.
func (p PathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

func (p PathRef) String() string { return p.Pointer() }

// Issue creates an Issue at this path. kv are alternating key/value pairs that
// end up in Params and feed message placeholders.
func (p PathRef) Issue(code string, kv ...any) Issue {
	var params map[string]any
	var data map[string]string
	if len(kv) > 1 {
		params = make(map[string]any, len(kv)/2)
		data = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			k := fmt.Sprint(kv[i])
			params[k] = kv[i+1]
			data[k] = fmt.Sprint(kv[i+1])
		}
	}
	return Issue{Path: p.Pointer(), Code: code, Message: i18n.T(code, data), Offset: -1, Params: params}
}

// escape '~' -> '~0', '/' -> '~1' per RFC6901
func escape(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}
