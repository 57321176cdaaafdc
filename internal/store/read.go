package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/metastore/internal/filterexpr"
	"github.com/roach88/metastore/internal/filtersql"
)

// MaxLimit caps the number of records a single search may return.
const MaxLimit = 2000

// DefaultLimit applies when a caller passes a non-positive limit.
const DefaultLimit = 10

// Entry is one search result. Document is populated only when the search
// requested full documents.
type Entry struct {
	GUID     string
	Document map[string]any
}

// SearchOptions control projection and pagination for Search.
type SearchOptions struct {
	// Data selects the projection: full documents (true) or GUIDs only
	// (false).
	Data bool
	// Limit is the maximum number of records returned, clamped to
	// MaxLimit. Non-positive values fall back to DefaultLimit.
	Limit int
	// Page selects the result window; the offset is Page*Limit.
	Page int
}

// Get returns the stored document for a GUID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, guid string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM metadata WHERE guid = ?`, guid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", guid, err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("get %q: decode document: %w", guid, err)
	}
	return doc, nil
}

// Search evaluates a rich filter expression string against the stored
// documents.
//
// An empty filter matches everything. A malformed filter returns the
// parser's *filterexpr.SyntaxError unchanged, which callers treat as a
// client error. Results are ordered by GUID so fixed-dataset windows are
// stable across pages.
func (s *Store) Search(ctx context.Context, filter string, opts SearchOptions) ([]Entry, error) {
	parsed, err := filterexpr.Parse(filter)
	if err != nil {
		return nil, err
	}

	where, args, err := filtersql.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	limit := clampLimit(opts.Limit)
	offset := 0
	if opts.Page > 0 {
		offset = opts.Page * limit
	}

	return s.query(ctx, where, args, opts.Data, limit, offset)
}

// SearchKeyValues evaluates the simple query mode: AND across keys, OR
// across the values given for one key, values always compared as text.
//
// Keys are dotted paths into the stored document, as in the rich filter
// language.
func (s *Store) SearchKeyValues(ctx context.Context, queries map[string][]string, data bool, limit, offset int) ([]Entry, error) {
	// Deterministic clause order keeps query plans and tests stable.
	keys := make([]string, 0, len(queries))
	for key := range queries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var clauses []string
	var args []any
	for _, key := range keys {
		values := queries[key]
		if len(values) == 0 {
			continue
		}
		alternatives := make([]string, 0, len(values))
		for _, value := range values {
			alternatives = append(alternatives, "CAST(json_extract(data, ?) AS TEXT) = ?")
			args = append(args, filtersql.JSONPath(key), value)
		}
		clauses = append(clauses, "("+strings.Join(alternatives, " OR ")+")")
	}

	where := strings.Join(clauses, " AND ")
	if offset < 0 {
		offset = 0
	}
	return s.query(ctx, where, args, data, clampLimit(limit), offset)
}

// query runs the assembled search SQL with projection and pagination.
func (s *Store) query(ctx context.Context, where string, args []any, data bool, limit, offset int) ([]Entry, error) {
	projection := "guid"
	if data {
		projection = "guid, data"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM metadata", projection)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	sb.WriteString(" ORDER BY guid COLLATE BINARY ASC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		if data {
			var raw string
			if err := rows.Scan(&entry.GUID, &raw); err != nil {
				return nil, fmt.Errorf("search: scan: %w", err)
			}
			if err := json.Unmarshal([]byte(raw), &entry.Document); err != nil {
				return nil, fmt.Errorf("search: decode document %q: %w", entry.GUID, err)
			}
		} else {
			if err := rows.Scan(&entry.GUID); err != nil {
				return nil, fmt.Errorf("search: scan: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: iterate: %w", err)
	}

	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
