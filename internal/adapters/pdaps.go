package adapters

import (
	"context"
	"fmt"
	"net/url"

	"github.com/roach88/metastore/internal/metadata"
)

// PDAPS fetches policy surveillance datasets from a monqcle endpoint, one
// request per dataset named in the datasets filter parameter.
type PDAPS struct {
	baseURL string
	client  *Client
}

// FetchRaw retrieves each configured dataset. Any failed request aborts
// the whole fetch.
func (a *PDAPS) FetchRaw(ctx context.Context, filters map[string]any) ([]map[string]any, error) {
	datasets := stringList(filters, "datasets")
	siteKey := stringValue(filters, "site_key")
	items := make([]map[string]any, 0, len(datasets))

	for _, id := range datasets {
		u := fmt.Sprintf("%ssiteitem/%s/get_by_dataset", a.baseURL, url.PathEscape(id))
		if siteKey != "" {
			u += "?site_key=" + url.QueryEscape(siteKey)
		}

		var item map[string]any
		if err := a.client.getJSON(ctx, u, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Normalize keys each dataset by its display_id and applies the
// configured field mappings. Items without a display_id are skipped.
func (a *PDAPS) Normalize(items []map[string]any, opts NormalizeOptions) (metadata.RecordSet, error) {
	set := make(metadata.RecordSet, len(items))
	for _, item := range items {
		guid, _ := item["display_id"].(string)
		if guid == "" {
			skipMissingID("pdaps", "display_id")
			continue
		}
		fields, err := normalizeItem(item, opts)
		if err != nil {
			return nil, err
		}
		joinInvestigators(fields)
		set[guid] = metadata.NewRecord(fields)
	}
	applyPerItemValues(set, opts.PerItemValues)
	return set, nil
}
