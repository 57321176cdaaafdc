// Package filtersql compiles filter expression trees into parameterized
// SQL fragments for the SQLite-backed document store.
//
// Documents are stored as JSON in a single `data` column; compilation
// targets SQLite's JSON1 functions (json_extract, json_each,
// json_array_length). Values and JSON paths are always parameterized,
// never interpolated into the SQL text.
package filtersql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/metastore/internal/filterexpr"
)

// comparators maps scalar operators to their SQL comparison operators.
// :like is handled separately because it compares text representations.
var comparators = map[filterexpr.ScalarOp]string{
	filterexpr.OpEq:  "=",
	filterexpr.OpNe:  "<>",
	filterexpr.OpGt:  ">",
	filterexpr.OpGte: ">=",
	filterexpr.OpLt:  "<",
	filterexpr.OpLte: "<=",
}

// Compile converts a filter tree into a WHERE-clause fragment over the
// `data` column, with its bind parameters. A nil filter compiles to the
// empty fragment (no WHERE clause).
//
// Typing rules:
//   - :like compares the text representation of the field (LIKE with %
//     wildcards), regardless of the underlying JSON type.
//   - All other operators compare JSON-typed values: the literal is bound
//     as its JSON encoding and unwrapped with json_extract(?, '$') so that
//     the comparison sees the same storage class the document value
//     decodes to. A JSON number 3 therefore never matches the string "3".
//   - null with :eq/:ne tests the JSON type of the field, so (k,:eq,null)
//     matches an explicit null but not a missing key.
func Compile(f filterexpr.Filter) (string, []any, error) {
	if f == nil {
		return "", nil, nil
	}

	switch node := f.(type) {
	case *filterexpr.Scalar:
		return compileScalar(node)
	case *filterexpr.Compound:
		return compileCompound(node)
	case *filterexpr.Boolean:
		return compileBoolean(node)
	default:
		return "", nil, fmt.Errorf("filtersql: unsupported filter node %T", f)
	}
}

func compileScalar(s *filterexpr.Scalar) (string, []any, error) {
	path := JSONPath(s.Key)

	if s.Op == filterexpr.OpLike {
		return "json_extract(data, ?) LIKE ?", []any{path, likeOperand(s.Value)}, nil
	}

	cmp, ok := comparators[s.Op]
	if !ok {
		return "", nil, fmt.Errorf("filtersql: unknown scalar operator %q", s.Op)
	}

	if s.Value == nil {
		// json_type is NULL for a missing key, so both forms reject
		// documents that lack the field entirely.
		switch s.Op {
		case filterexpr.OpEq:
			return "json_type(data, ?) = 'null'", []any{path}, nil
		case filterexpr.OpNe:
			return "json_type(data, ?) <> 'null'", []any{path}, nil
		}
	}

	encoded, err := json.Marshal(s.Value)
	if err != nil {
		return "", nil, fmt.Errorf("filtersql: encode literal: %w", err)
	}

	sql := fmt.Sprintf("json_extract(data, ?) %s json_extract(?, '$')", cmp)
	return sql, []any{path, string(encoded)}, nil
}

func compileCompound(c *filterexpr.Compound) (string, []any, error) {
	path := JSONPath(c.Key)

	elemSQL, elemArgs, err := compileElement(c.Inner)
	if err != nil {
		return "", nil, err
	}

	switch c.Op {
	case filterexpr.OpAny:
		sql := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(data, ?) AS elem WHERE %s)", elemSQL)
		return sql, append([]any{path}, elemArgs...), nil

	case filterexpr.OpAll:
		// Universal quantification as satisfying-count == array length.
		// An empty array is vacuously true: length 0 equals count 0. A
		// missing key yields NULL on the left and never matches.
		sql := fmt.Sprintf(
			"json_array_length(data, ?) = (SELECT count(*) FROM json_each(data, ?) AS elem WHERE %s)",
			elemSQL)
		return sql, append([]any{path, path}, elemArgs...), nil

	default:
		return "", nil, fmt.Errorf("filtersql: unknown compound operator %q", c.Op)
	}
}

// compileElement builds the per-element comparison used inside json_each
// subqueries. elem.value carries the element with its JSON storage class,
// so the scalar typing rules apply unchanged.
func compileElement(s *filterexpr.Scalar) (string, []any, error) {
	if s.Op == filterexpr.OpLike {
		return "elem.value LIKE ?", []any{likeOperand(s.Value)}, nil
	}

	cmp, ok := comparators[s.Op]
	if !ok {
		return "", nil, fmt.Errorf("filtersql: unknown scalar operator %q", s.Op)
	}

	if s.Value == nil {
		switch s.Op {
		case filterexpr.OpEq:
			return "elem.type = 'null'", nil, nil
		case filterexpr.OpNe:
			return "elem.type <> 'null'", nil, nil
		}
	}

	encoded, err := json.Marshal(s.Value)
	if err != nil {
		return "", nil, fmt.Errorf("filtersql: encode literal: %w", err)
	}
	return fmt.Sprintf("elem.value %s json_extract(?, '$')", cmp), []any{string(encoded)}, nil
}

func compileBoolean(b *filterexpr.Boolean) (string, []any, error) {
	if len(b.Operands) == 0 {
		return "", nil, fmt.Errorf("filtersql: boolean filter with no operands")
	}

	var joiner string
	switch b.Op {
	case filterexpr.OpAnd:
		joiner = " AND "
	case filterexpr.OpOr:
		joiner = " OR "
	default:
		return "", nil, fmt.Errorf("filtersql: unknown boolean operator %q", b.Op)
	}

	parts := make([]string, 0, len(b.Operands))
	var args []any
	for _, operand := range b.Operands {
		sql, operandArgs, err := Compile(operand)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, operandArgs...)
	}

	return strings.Join(parts, joiner), args, nil
}

// likeOperand renders a literal as the text LIKE compares against.
func likeOperand(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// JSONPath converts a dotted filter key into a SQLite JSON path. A
// digit-only segment addresses an array index:
//
//	"a.b"      → $."a"."b"
//	"counts.1" → $."counts"[1]
//
// The empty key addresses the document root.
func JSONPath(key string) string {
	if key == "" {
		return "$"
	}

	var sb strings.Builder
	sb.WriteByte('$')
	for _, segment := range strings.Split(key, ".") {
		if isDigits(segment) {
			sb.WriteByte('[')
			sb.WriteString(segment)
			sb.WriteByte(']')
			continue
		}
		sb.WriteString(`."`)
		sb.WriteString(segment)
		sb.WriteByte('"')
	}
	return sb.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
