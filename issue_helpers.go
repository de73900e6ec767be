package baiji

import "fmt"

// IssueAt creates a single-issue error at the given path with provided code and
// a free-form hint. This is a convenience helper to improve readability at call
// sites with many parameters.
func IssueAt(p PathRef, code, hint string, kv ...any) error {
	it := p.Issue(code, kv...)
	it.Hint = hint
	return Issues{it}
}

// Issuef is IssueAt with a formatted hint.
func Issuef(p PathRef, code, format string, args ...any) error {
	return IssueAt(p, code, fmt.Sprintf(format, args...))
}

// WrapCause creates a single-issue error that keeps cause visible to errors.Is.
func WrapCause(p PathRef, code string, cause error) error {
	it := p.Issue(code)
	it.Cause = cause
	return Issues{it}
}
