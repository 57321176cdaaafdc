// Package extract resolves JSON path expressions against nested documents.
//
// The result arity is significant and preserved exactly: an expression that
// matches nothing yields the empty string, a single match yields the value
// itself, and multiple matches yield the matched values in path-evaluation
// order. Downstream field mapping depends on this trinary shape.
package extract

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// PathError reports a syntactically invalid path expression. Path
// expressions come from operator-supplied mapping configuration, so a
// PathError is a configuration mistake and callers fail fast on it.
type PathError struct {
	Expression string
	Err        error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path expression %q: %v", e.Expression, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Value resolves expression against doc.
//
// An empty expression resolves to the empty string. Zero matches resolve to
// the empty string, exactly one match to the unwrapped value, and multiple
// matches to a []any in evaluation order.
func Value(expression string, doc map[string]any) (any, error) {
	if expression == "" {
		return "", nil
	}

	expr, err := jp.ParseString(expression)
	if err != nil {
		return nil, &PathError{Expression: expression, Err: err}
	}

	matches := expr.Get(doc)
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0], nil
	default:
		return matches, nil
	}
}
