// Package adapters fetches study metadata from external registries and
// normalizes it into canonical records.
//
// Each adapter pairs a fetch step (adapter-specific requests, pagination,
// hard failure on any upstream error) with a normalize step (flatten or
// extract the raw shape, apply field mappings, key records by the
// adapter's identifying field). Fetching never returns partial data: the
// first failed request aborts the run with a *FetchError.
package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/metastore/internal/mapper"
	"github.com/roach88/metastore/internal/metadata"
)

// NormalizeOptions control how raw items become canonical records.
type NormalizeOptions struct {
	// Mappings produce normalized fields per item. Nil keeps raw fields
	// untouched.
	Mappings mapper.Spec

	// KeepOriginalFields overlays mapped fields onto the raw item instead
	// of replacing it. Mapped fields win on key collision.
	KeepOriginalFields bool

	// PerItemValues are per-record overrides keyed by GUID, merged in
	// after mapping. An override only replaces fields the record already
	// has; it never introduces new keys.
	PerItemValues map[string]map[string]any
}

// Adapter is a single external metadata source.
type Adapter interface {
	// FetchRaw retrieves raw items from the source. filters carry the
	// adapter-specific request parameters from the source configuration.
	FetchRaw(ctx context.Context, filters map[string]any) ([]map[string]any, error)

	// Normalize converts fetched items into canonical records keyed by
	// the source's identifying field. Items missing that field are
	// skipped with a log line.
	Normalize(items []map[string]any, opts NormalizeOptions) (metadata.RecordSet, error)
}

// Names lists the registered adapter names.
func Names() []string {
	return []string{"icpsr", "clinicaltrials", "pdaps"}
}

// New returns the adapter registered under name. A nil client falls back
// to an unpaced default.
func New(name, baseURL string, client *Client) (Adapter, error) {
	if client == nil {
		client = NewClient(nil, 0)
	}
	switch name {
	case "icpsr":
		return &ICPSR{baseURL: baseURL, client: client}, nil
	case "clinicaltrials":
		return &ClinicalTrials{baseURL: baseURL, client: client}, nil
	case "pdaps":
		return &PDAPS{baseURL: baseURL, client: client}, nil
	default:
		return nil, &UnknownAdapterError{Name: name}
	}
}

// normalizeItem applies the field mappings to one raw item.
func normalizeItem(item map[string]any, opts NormalizeOptions) (map[string]any, error) {
	if opts.Mappings == nil {
		return item, nil
	}
	mapped, err := mapper.MapFields(item, opts.Mappings)
	if err != nil {
		return nil, err
	}
	if !opts.KeepOriginalFields {
		return mapped, nil
	}
	merged := make(map[string]any, len(item)+len(mapped))
	for k, v := range item {
		merged[k] = v
	}
	for k, v := range mapped {
		merged[k] = v
	}
	return merged, nil
}

// joinInvestigators collapses a list-valued investigators field into a
// single comma-separated string.
func joinInvestigators(fields map[string]any) {
	list, ok := fields["investigators"].([]any)
	if !ok {
		return
	}
	parts := make([]string, 0, len(list))
	for _, v := range list {
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	fields["investigators"] = strings.Join(parts, ",")
}

// applyPerItemValues merges per-record overrides into the set. Only keys
// already present in a record's discovery map are overwritten.
func applyPerItemValues(set metadata.RecordSet, overrides map[string]map[string]any) {
	for guid, values := range overrides {
		record, ok := set[guid]
		if !ok {
			continue
		}
		for k, v := range values {
			if _, exists := record.Discovery[k]; exists {
				record.Discovery[k] = v
			}
		}
	}
}

// lookupFlat finds a field in a flattened item by exact key or by
// dot-joined suffix, so identifying fields buried below the flattened
// root are still found.
func lookupFlat(fields map[string]any, key string) (any, bool) {
	if v, ok := fields[key]; ok {
		return v, true
	}
	suffix := "." + key
	for k, v := range fields {
		if strings.HasSuffix(k, suffix) {
			return v, true
		}
	}
	return nil, false
}

// stringValue reads a string filter parameter.
func stringValue(filters map[string]any, key string) string {
	s, _ := filters[key].(string)
	return s
}

// stringList reads a list-of-strings filter parameter, tolerating both
// []string and the []any YAML decoding produces.
func stringList(filters map[string]any, key string) []string {
	switch v := filters[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	default:
		return nil
	}
}

// intValue reads an integer filter parameter, falling back to def when
// absent or not numeric.
func intValue(filters map[string]any, key string, def int) int {
	switch v := filters[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// skipMissingID logs a normalized item that cannot be keyed.
func skipMissingID(adapter, field string) {
	slog.Warn("skipping record without identifying field",
		"adapter", adapter,
		"field", field)
}
