package baiji

import (
	"errors"

	eng "github.com/reoring/baiji/internal/engine"
)

// DetectJSONDuplicateKeys reports every duplicated object key in a JSON
// schema document, up to maxIssues (maxIssues <= 0 means no limit). Unlike
// the schema driver, it does not stop at the first duplicate.
func DetectJSONDuplicateKeys(data []byte, maxIssues int) (Issues, error) {
	var iss Issues
	src := eng.WrapWithEnforcement(eng.NewBytes(data), eng.EnforceOptions{
		OnDuplicate: eng.DupWarn,
		IssueSink: func(si eng.SimpleIssue) {
			if maxIssues > 0 && len(iss) >= maxIssues {
				return
			}
			iss = AppendIssues(iss, Issue{Code: si.Code, Path: si.Path, Message: si.Message, Offset: -1})
		},
	})
	if _, err := eng.BuildTree(src); err != nil {
		var ie eng.IssueError
		if errors.As(err, &ie) {
			return nil, Issues{{Path: ie.Path, Code: ie.Code, Message: ie.Message, Offset: -1}}
		}
		return nil, WrapCause(Root(), CodeSchemaParse, err)
	}
	return iss, nil
}
