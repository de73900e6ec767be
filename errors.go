package baiji

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Schema construction
	CodeSchemaParse      = "schema_parse"
	CodeMissingAttribute = "missing_attribute"
	CodeDuplicateName    = "duplicate_name"
	CodeUnknownType      = "unknown_type"
	CodeInvalidSchema    = "invalid_schema"
	CodeDuplicateKey     = "duplicate_key"
	CodeParseError       = "parse_error"
	// Plan construction
	CodeIncompatible = "incompatible"
	// Per-value encode
	CodeInvalidType   = "invalid_type"
	CodeInvalidEnum   = "invalid_enum"
	CodeNoUnionBranch = "no_union_branch"
	// Per-value decode
	CodeTruncated   = "truncated"
	CodeInvalidUTF8 = "invalid_utf8"
	CodeOverflow    = "overflow"
	CodeTooBig      = "too_big"
)

// Issue represents a single schema, plan, or value error.
type Issue struct {
	Path    string // Schema path (for example: /fields/items/items).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected kinds, etc.
	Cause   error  // Optional: underlying error (I/O errors are kept here).
	Offset  int64  // Byte offset in the input source (-1 when unknown).
	// Params carries structured parameters (e.g., {"field":"a", "pos":1})
	// for i18n and diagnostics.
	Params map[string]any
}

// Issues is a collection of errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /fields/a: expected int
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Hint != "" {
			fmt.Fprintf(b, ": %s", it.Hint)
		}
		if it.Cause != nil {
			fmt.Fprintf(b, " (%v)", it.Cause)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the underlying causes so errors.Is sees I/O errors such as
// io.ErrUnexpectedEOF through an Issues value.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// HasCode reports whether any issue carries the given code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IsCode reports whether err carries an Issue with the given code.
func IsCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	return ok && iss.HasCode(code)
}
