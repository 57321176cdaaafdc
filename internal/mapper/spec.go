package mapper

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ohler55/ojg/jp"
)

// pathMarker prefixes string specs whose remainder is a path expression.
const pathMarker = "path:"

// FieldKind enumerates the three shapes a field spec can take.
type FieldKind int

const (
	// KindLiteral assigns a fixed value verbatim.
	KindLiteral FieldKind = iota
	// KindPath resolves a path expression against the raw source record.
	KindPath
	// KindFiltered resolves a path expression and pipes the result through
	// named field filters, left to right.
	KindFiltered
)

// FieldSpec describes how one output field is produced. The three shapes
// correspond to the accepted configuration forms:
//
//	summary: "a fixed value"                     (literal)
//	title: "path:StudyTitle"                     (path reference)
//	description: {path: Desc, filters: [strip_html]}  (filtered path)
type FieldSpec struct {
	Kind    FieldKind
	Literal any
	Path    string
	Filters []string
}

// Spec maps output field names to their field specs.
type Spec map[string]FieldSpec

// UnmarshalYAML decodes the configuration forms described on FieldSpec.
func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var structured struct {
			Path    string   `yaml:"path"`
			Filters []string `yaml:"filters"`
		}
		if err := node.Decode(&structured); err != nil {
			return fmt.Errorf("field spec: %w", err)
		}
		*f = FieldSpec{Kind: KindFiltered, Path: structured.Path, Filters: structured.Filters}
		return nil
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return fmt.Errorf("field spec: %w", err)
	}
	*f = fromScalar(value)
	return nil
}

// UnmarshalJSON decodes the same forms from JSON configuration.
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var structured struct {
		Path    *string  `json:"path"`
		Filters []string `json:"filters"`
	}
	if err := json.Unmarshal(data, &structured); err == nil && structured.Path != nil {
		*f = FieldSpec{Kind: KindFiltered, Path: *structured.Path, Filters: structured.Filters}
		return nil
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("field spec: %w", err)
	}
	if m, ok := value.(map[string]any); ok {
		// Structured spec without a path resolves to the empty string at
		// mapping time, same as a path that matches nothing.
		spec := FieldSpec{Kind: KindFiltered}
		if filters, ok := m["filters"].([]any); ok {
			for _, name := range filters {
				if s, ok := name.(string); ok {
					spec.Filters = append(spec.Filters, s)
				}
			}
		}
		*f = spec
		return nil
	}
	*f = fromScalar(value)
	return nil
}

// fromScalar classifies a scalar config value as a path reference or a
// literal.
func fromScalar(value any) FieldSpec {
	if s, ok := value.(string); ok && strings.Contains(s, pathMarker) {
		expr := strings.SplitN(s, pathMarker, 2)[1]
		return FieldSpec{Kind: KindPath, Path: expr}
	}
	return FieldSpec{Kind: KindLiteral, Literal: value}
}

// Validate checks every path expression in the spec eagerly. An invalid
// expression is an operator mistake surfaced before any fetching happens.
func (s Spec) Validate() error {
	for field, spec := range s {
		if spec.Kind == KindLiteral || spec.Path == "" {
			continue
		}
		if _, err := jp.ParseString(spec.Path); err != nil {
			return fmt.Errorf("field %q: invalid path expression %q: %w", field, spec.Path, err)
		}
	}
	return nil
}
