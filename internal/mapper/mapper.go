// Package mapper produces normalized field sets from raw source records
// according to a per-source mapping spec.
//
// Path expressions always resolve against the raw source record, never the
// canonical record, and absent paths degrade to the empty string rather
// than failing the record.
package mapper

import (
	"github.com/roach88/metastore/internal/extract"
	"github.com/roach88/metastore/internal/fieldfilter"
)

// MapFields resolves every field in spec against record and returns the
// normalized field set. The input record is not modified.
//
// Literal specs are copied verbatim. Path specs resolve via the extractor.
// Filtered specs resolve then apply each named filter in declared order,
// left to right; unknown filter names pass through.
//
// The only error condition is an invalid path expression, which is a
// configuration error.
func MapFields(record map[string]any, spec Spec) (map[string]any, error) {
	results := make(map[string]any, len(spec))

	for field, fs := range spec {
		switch fs.Kind {
		case KindLiteral:
			results[field] = fs.Literal

		case KindPath:
			value, err := extract.Value(fs.Path, record)
			if err != nil {
				return nil, err
			}
			results[field] = value

		case KindFiltered:
			value, err := extract.Value(fs.Path, record)
			if err != nil {
				return nil, err
			}
			for _, name := range fs.Filters {
				value = fieldfilter.Apply(name, value)
			}
			results[field] = value
		}
	}

	return results, nil
}
