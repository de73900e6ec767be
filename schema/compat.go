package schema

import (
	"fmt"
	"strings"

	baiji "github.com/reoring/baiji"
)

// Compatibility is a schema evolution policy in the sense used by schema
// registries.
type Compatibility string

const (
	CompatNone               Compatibility = "NONE"
	CompatBackward           Compatibility = "BACKWARD"
	CompatForward            Compatibility = "FORWARD"
	CompatFull               Compatibility = "FULL"
	CompatBackwardTransitive Compatibility = "BACKWARD_TRANSITIVE"
	CompatForwardTransitive  Compatibility = "FORWARD_TRANSITIVE"
	CompatFullTransitive     Compatibility = "FULL_TRANSITIVE"
)

// ParseCompatibility accepts a level name in any case.
func ParseCompatibility(s string) (Compatibility, error) {
	switch c := Compatibility(strings.ToUpper(strings.TrimSpace(s))); c {
	case CompatNone, CompatBackward, CompatForward, CompatFull,
		CompatBackwardTransitive, CompatForwardTransitive, CompatFullTransitive:
		return c, nil
	}
	return "", fmt.Errorf("unknown compatibility level %q", s)
}

func (c Compatibility) transitive() bool { return strings.HasSuffix(string(c), "_TRANSITIVE") }

func (c Compatibility) backward() bool {
	return c == CompatBackward || c == CompatFull || c == CompatBackwardTransitive || c == CompatFullTransitive
}

func (c Compatibility) forward() bool {
	return c == CompatForward || c == CompatFull || c == CompatForwardTransitive || c == CompatFullTransitive
}

// CheckCompatibility checks next against history (oldest first). Backward
// means next can read data written with earlier schemas; forward means earlier
// schemas can read data written with next. Non-transitive levels only look at
// the latest schema in history.
func CheckCompatibility(history []Schema, next Schema, level Compatibility) error {
	if level == CompatNone || len(history) == 0 {
		return nil
	}
	prev := history
	if !level.transitive() {
		prev = history[len(history)-1:]
	}
	var issues baiji.Issues
	for i := len(prev) - 1; i >= 0; i-- {
		old := prev[i]
		version := len(history) - len(prev) + i
		if level.backward() {
			if it := check(next, old, baiji.Root(), map[pair]bool{}); it != nil {
				it.Hint = fmt.Sprintf("backward: new schema cannot read version %d: %s", version, it.Hint)
				issues = append(issues, *it)
			}
		}
		if level.forward() {
			if it := check(old, next, baiji.Root(), map[pair]bool{}); it != nil {
				it.Hint = fmt.Sprintf("forward: version %d cannot read new schema: %s", version, it.Hint)
				issues = append(issues, *it)
			}
		}
	}
	if len(issues) > 0 {
		return issues
	}
	return nil
}
