package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/metastore/internal/metadata"
)

// DefaultBatchSize is the number of studies requested per page when the
// source configuration does not set one.
const DefaultBatchSize = 100

// ClinicalTrials fetches full study records from the clinicaltrials.gov
// full_studies API. The API pages with 1-based min_rnk/max_rnk bounds and
// reports the total match count in its first response.
type ClinicalTrials struct {
	baseURL string
	client  *Client
}

type fullStudiesEnvelope struct {
	FullStudiesResponse *fullStudiesResponse `json:"FullStudiesResponse"`
}

type fullStudiesResponse struct {
	NStudiesFound    int              `json:"NStudiesFound"`
	NStudiesReturned int              `json:"NStudiesReturned"`
	FullStudies      []map[string]any `json:"FullStudies"`
}

// FetchRaw pages through the studies matching the term filter parameter.
// batchSize caps the page size (default 100) and maxItems, when positive,
// truncates the result exactly at the cap even mid-page. An empty term
// fetches nothing.
func (a *ClinicalTrials) FetchRaw(ctx context.Context, filters map[string]any) ([]map[string]any, error) {
	term := stringValue(filters, "term")
	if term == "" {
		return nil, nil
	}
	term = strings.ReplaceAll(term, " ", "+")

	batchSize := intValue(filters, "batchSize", DefaultBatchSize)
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxItems := intValue(filters, "maxItems", 0)

	var items []map[string]any
	offset := 1
	remaining := 1
	limit := batchSize
	if maxItems > 0 && maxItems < limit {
		limit = maxItems
	}

	for remaining > 0 {
		u := fmt.Sprintf("%s?expr=%s&fmt=json&min_rnk=%d&max_rnk=%d",
			a.baseURL, term, offset, offset+limit-1)

		var envelope fullStudiesEnvelope
		if err := a.client.getJSON(ctx, u, &envelope); err != nil {
			return nil, err
		}
		resp := envelope.FullStudiesResponse
		if resp == nil {
			return nil, &FetchError{URL: u, Err: fmt.Errorf("response missing FullStudiesResponse")}
		}
		if resp.NStudiesFound == 0 {
			break
		}

		if offset == 1 {
			remaining = resp.NStudiesFound
			if maxItems > 0 && maxItems < remaining {
				remaining = maxItems
			}
		}

		items = append(items, resp.FullStudies...)
		if maxItems > 0 && len(items) >= maxItems {
			return items[:maxItems], nil
		}

		remaining -= resp.NStudiesReturned
		offset += resp.NStudiesReturned
		limit = batchSize
		if remaining < limit {
			limit = remaining
		}
	}
	return items, nil
}

// Normalize flattens each study's nested structure into dot-joined keys,
// applies the field mappings, and keys the record by its NCTId. A
// human-readable location is derived from the first listed study site.
func (a *ClinicalTrials) Normalize(items []map[string]any, opts NormalizeOptions) (metadata.RecordSet, error) {
	set := make(metadata.RecordSet, len(items))
	for _, item := range items {
		study, ok := item["Study"].(map[string]any)
		if !ok {
			skipMissingID("clinicaltrials", "Study")
			continue
		}
		flat := metadata.Flatten(study)

		nctID, _ := lookupFlat(flat, "NCTId")
		guid, _ := nctID.(string)
		if guid == "" {
			skipMissingID("clinicaltrials", "NCTId")
			continue
		}

		fields, err := normalizeItem(flat, opts)
		if err != nil {
			return nil, err
		}
		fields["location"] = studyLocation(flat)
		set[guid] = metadata.NewRecord(fields)
	}
	applyPerItemValues(set, opts.PerItemValues)
	return set, nil
}

// studyLocation renders "facility, city, state" from the first entry of
// the study's location list, or "" when there is none.
func studyLocation(flat map[string]any) string {
	v, ok := lookupFlat(flat, "Location")
	if !ok {
		return ""
	}
	locations, ok := v.([]any)
	if !ok || len(locations) == 0 {
		return ""
	}
	first, ok := locations[0].(map[string]any)
	if !ok {
		return ""
	}
	part := func(key string) string {
		s, _ := first[key].(string)
		return s
	}
	return fmt.Sprintf("%s, %s, %s",
		part("LocationFacility"), part("LocationCity"), part("LocationState"))
}
