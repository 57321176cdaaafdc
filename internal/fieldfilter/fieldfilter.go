// Package fieldfilter provides named post-processing functions applied to
// extracted field values during normalization.
//
// The registry is intentionally forgiving: an unknown filter name is a
// no-op, so a mapping configuration may list filters that only newer
// deployments understand without breaking older ones.
package fieldfilter

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// Filter transforms a single extracted value.
type Filter func(any) any

// Registered filter names.
const (
	StripHTML           = "strip_html"
	NormalizeWhitespace = "normalize_whitespace"
)

var stripPolicy = bluemonday.StrictPolicy()

// filters is the closed set of known filters. Add new entries here; name
// lookups never fail, unknown names pass values through unchanged.
var filters = map[string]Filter{
	StripHTML:           stringwise(stripHTML),
	NormalizeWhitespace: stringwise(normalizeWhitespace),
}

// Apply runs the named filter on value. Unknown names return value
// unchanged.
func Apply(name string, value any) any {
	f, ok := filters[name]
	if !ok {
		return value
	}
	return f(value)
}

// stringwise lifts a string transform to operate on extracted values:
// strings are transformed directly, slices element-wise, and everything
// else passes through untouched.
func stringwise(f func(string) string) Filter {
	var lifted Filter
	lifted = func(v any) any {
		switch val := v.(type) {
		case string:
			return f(val)
		case []any:
			out := make([]any, len(val))
			for i, elem := range val {
				out[i] = lifted(elem)
			}
			return out
		default:
			return v
		}
	}
	return lifted
}

// stripHTML removes all markup, decodes entities, and returns the text
// content NFC-normalized.
func stripHTML(s string) string {
	stripped := stripPolicy.Sanitize(s)
	return norm.NFC.String(html.UnescapeString(stripped))
}

// normalizeWhitespace collapses runs of whitespace to single spaces and
// trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
