package baiji

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement applied while reading schema documents.
type Strictness struct {
	OnDuplicateKey Severity // Ignore, Warn or Error (duplicate JSON keys).
}

// ParseOpt bundles schema-document parsing options.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int   // Maximum nesting depth of the document; 0 means unlimited.
	MaxBytes   int64 // Maximum document size; 0 means unlimited.
	// OnWarning receives non-fatal issues such as tolerated duplicate keys.
	OnWarning func(Issue)
}

// DefaultParseOpt rejects duplicate keys, which would otherwise silently
// shadow a field list or symbol list.
func DefaultParseOpt() ParseOpt {
	return ParseOpt{Strictness: Strictness{OnDuplicateKey: Error}, MaxDepth: 256}
}
