package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/metastore/internal/metadata"
)

// ICPSR fetches study records from an ICPSR OAI-PMH endpoint using the
// Dublin Core metadata format, one GetRecord request per study id.
type ICPSR struct {
	baseURL string
	client  *Client
}

// oaiRecord is the subset of an OAI-PMH GetRecord response we read: the
// Dublin Core elements of the returned record. Element prefixes (oai_dc:,
// dc:) are namespace noise; matching is by local name.
type oaiRecord struct {
	Titles       []string `xml:"GetRecord>record>metadata>dc>title"`
	Creators     []string `xml:"GetRecord>record>metadata>dc>creator"`
	Subjects     []string `xml:"GetRecord>record>metadata>dc>subject"`
	Descriptions []string `xml:"GetRecord>record>metadata>dc>description"`
	Publishers   []string `xml:"GetRecord>record>metadata>dc>publisher"`
	Contributors []string `xml:"GetRecord>record>metadata>dc>contributor"`
	Dates        []string `xml:"GetRecord>record>metadata>dc>date"`
	Types        []string `xml:"GetRecord>record>metadata>dc>type"`
	Formats      []string `xml:"GetRecord>record>metadata>dc>format"`
	Identifiers  []string `xml:"GetRecord>record>metadata>dc>identifier"`
	Sources      []string `xml:"GetRecord>record>metadata>dc>source"`
	Languages    []string `xml:"GetRecord>record>metadata>dc>language"`
	Relations    []string `xml:"GetRecord>record>metadata>dc>relation"`
	Coverages    []string `xml:"GetRecord>record>metadata>dc>coverage"`
	Rights       []string `xml:"GetRecord>record>metadata>dc>rights"`
}

// FetchRaw performs one GetRecord request per entry in the study_ids
// filter parameter. Any failed request aborts the whole fetch.
func (a *ICPSR) FetchRaw(ctx context.Context, filters map[string]any) ([]map[string]any, error) {
	ids := stringList(filters, "study_ids")
	items := make([]map[string]any, 0, len(ids))

	for _, id := range ids {
		u := fmt.Sprintf("%s?verb=GetRecord&metadataPrefix=oai_dc&identifier=%s",
			a.baseURL, url.QueryEscape(id))

		var record oaiRecord
		if err := a.client.getXML(ctx, u, &record); err != nil {
			return nil, err
		}
		items = append(items, record.item())
	}
	return items, nil
}

// item converts the Dublin Core elements into a raw field map. Elements
// with one occurrence become scalars, repeated elements become lists,
// absent elements are omitted. The identifier is the record's DOI with
// its URI prefix stripped.
func (r *oaiRecord) item() map[string]any {
	item := make(map[string]any)
	put := func(key string, vals []string) {
		switch len(vals) {
		case 0:
		case 1:
			item[key] = vals[0]
		default:
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			item[key] = list
		}
	}

	put("title", r.Titles)
	put("creator", r.Creators)
	put("subject", r.Subjects)
	put("description", r.Descriptions)
	put("publisher", r.Publishers)
	put("contributor", r.Contributors)
	put("date", r.Dates)
	put("type", r.Types)
	put("format", r.Formats)
	put("source", r.Sources)
	put("language", r.Languages)
	put("relation", r.Relations)
	put("coverage", r.Coverages)
	put("rights", r.Rights)

	if id := pickIdentifier(r.Identifiers); id != "" {
		item["identifier"] = cleanIdentifier(id)
	}
	return item
}

// pickIdentifier selects the DOI from the record's identifiers. ICPSR
// records list the study number first and the DOI second, so prefer an
// entry that looks like a DOI and otherwise take the last one.
func pickIdentifier(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	for _, id := range ids {
		if strings.Contains(id, "doi.org") {
			return id
		}
	}
	return ids[len(ids)-1]
}

// cleanIdentifier strips the DOI resolver prefix and any leftover
// namespace prefix from an identifier.
func cleanIdentifier(id string) string {
	id = strings.ReplaceAll(id, "http://doi.org/", "")
	return strings.ReplaceAll(id, "dc:", "")
}

// Normalize keys each record by its cleaned identifier and applies the
// configured field mappings.
func (a *ICPSR) Normalize(items []map[string]any, opts NormalizeOptions) (metadata.RecordSet, error) {
	set := make(metadata.RecordSet, len(items))
	for _, item := range items {
		guid, _ := item["identifier"].(string)
		if guid == "" {
			skipMissingID("icpsr", "identifier")
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
