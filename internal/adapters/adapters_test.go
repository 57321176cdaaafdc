package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metastore/internal/mapper"
	"github.com/roach88/metastore/internal/metadata"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			a, err := New(name, "http://example.org/", nil)
			require.NoError(t, err)
			assert.NotNil(t, a)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := New("dataverse", "http://example.org/", nil)
		var unknown *UnknownAdapterError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "dataverse", unknown.Name)
	})
}

func TestApplyPerItemValues(t *testing.T) {
	set := metadata.RecordSet{
		"g1": metadata.NewRecord(map[string]any{"name": "old", "tag": "x"}),
		"g2": metadata.NewRecord(map[string]any{"name": "keep"}),
	}

	applyPerItemValues(set, map[string]map[string]any{
		"g1":      {"name": "new", "added": "never"},
		"missing": {"name": "ignored"},
	})

	assert.Equal(t, "new", set["g1"].Discovery["name"])
	assert.NotContains(t, set["g1"].Discovery, "added", "overrides must not introduce keys")
	assert.Equal(t, "keep", set["g2"].Discovery["name"])
}

func TestJoinInvestigators(t *testing.T) {
	fields := map[string]any{"investigators": []any{"Ada Lovelace", "Alan Turing"}}
	joinInvestigators(fields)
	assert.Equal(t, "Ada Lovelace,Alan Turing", fields["investigators"])

	fields = map[string]any{"investigators": "already a string"}
	joinInvestigators(fields)
	assert.Equal(t, "already a string", fields["investigators"])
}

const oaiRecordXML = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <GetRecord>
    <record>
      <metadata>
        <oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/"
                   xmlns:dc="http://purl.org/dc/elements/1.1/">
          <dc:title>National Survey %s</dc:title>
          <dc:creator>Doe, Jane</dc:creator>
          <dc:subject>health</dc:subject>
          <dc:subject>policy</dc:subject>
          <dc:identifier>%s</dc:identifier>
          <dc:identifier>http://doi.org/10.3886/ICPSR%s</dc:identifier>
        </oai_dc:dc>
      </metadata>
    </record>
  </GetRecord>
</OAI-PMH>`

func TestICPSR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GetRecord", r.URL.Query().Get("verb"))
		assert.Equal(t, "oai_dc", r.URL.Query().Get("metadataPrefix"))
		id := r.URL.Query().Get("identifier")
		fmt.Fprintf(w, oaiRecordXML, id, id, id)
	}))
	defer srv.Close()

	a, err := New("icpsr", srv.URL, NewClient(srv.Client(), 0))
	require.NoError(t, err)

	items, err := a.FetchRaw(context.Background(), map[string]any{
		"study_ids": []any{"30122", "30123"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "National Survey 30122", items[0]["title"])
	assert.Equal(t, "Doe, Jane", items[0]["creator"])
	assert.Equal(t, []any{"health", "policy"}, items[0]["subject"])
	assert.Equal(t, "10.3886/ICPSR30122", items[0]["identifier"])

	set, err := a.Normalize(items, NormalizeOptions{
		Mappings: mapper.Spec{
			"name":          {Kind: mapper.KindPath, Path: "title"},
			"investigators": {Kind: mapper.KindPath, Path: "creator"},
			"commons":       {Kind: mapper.KindLiteral, Literal: "icpsr"},
		},
		PerItemValues: map[string]map[string]any{
			"10.3886/ICPSR30123": {"name": "Renamed Survey"},
		},
	})
	require.NoError(t, err)
	require.Len(t, set, 2)

	first := set["10.3886/ICPSR30122"]
	assert.Equal(t, metadata.GUIDTypeDiscovery, first.GUIDType)
	assert.Equal(t, "National Survey 30122", first.Discovery["name"])
	assert.Equal(t, "Doe, Jane", first.Discovery["investigators"])
	assert.Equal(t, "icpsr", first.Discovery["commons"])
	assert.NotContains(t, first.Discovery, "title", "mapped-only output drops raw fields")

	assert.Equal(t, "Renamed Survey", set["10.3886/ICPSR30123"].Discovery["name"])
}

func TestICPSR_KeepOriginalFields(t *testing.T) {
	a := &ICPSR{}
	set, err := a.Normalize([]map[string]any{
		{"identifier": "10.1/X", "title": "Raw Title", "creator": "Someone"},
	}, NormalizeOptions{
		Mappings: mapper.Spec{
			"name": {Kind: mapper.KindPath, Path: "title"},
		},
		KeepOriginalFields: true,
	})
	require.NoError(t, err)

	fields := set["10.1/X"].Discovery
	assert.Equal(t, "Raw Title", fields["name"])
	assert.Equal(t, "Raw Title", fields["title"])
	assert.Equal(t, "Someone", fields["creator"])
}

func TestICPSR_FetchAbortsOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a, err := New("icpsr", srv.URL, NewClient(srv.Client(), 0))
	require.NoError(t, err)

	_, err = a.FetchRaw(context.Background(), map[string]any{
		"study_ids": []any{"1"},
	})
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.URL, "identifier=1")
}

// ctServer serves a fixed number of studies through min_rnk/max_rnk
// windows and records the requested ranges.
func ctServer(t *testing.T, total int) (*httptest.Server, *[]string) {
	t.Helper()
	var ranges []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var min, max int
		fmt.Sscanf(q.Get("min_rnk"), "%d", &min)
		fmt.Sscanf(q.Get("max_rnk"), "%d", &max)
		ranges = append(ranges, fmt.Sprintf("%d-%d", min, max))

		if max > total {
			max = total
		}
		studies := make([]map[string]any, 0, max-min+1)
		for i := min; i <= max; i++ {
			studies = append(studies, map[string]any{
				"Study": map[string]any{
					"ProtocolSection": map[string]any{
						"IdentificationModule": map[string]any{
							"NCTId":      fmt.Sprintf("NCT%08d", i),
							"BriefTitle": fmt.Sprintf("Trial %d", i),
						},
					},
				},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"FullStudiesResponse": map[string]any{
				"NStudiesFound":    total,
				"NStudiesReturned": len(studies),
				"FullStudies":      studies,
			},
		})
	}))
	return srv, &ranges
}

func TestClinicalTrials_Pagination(t *testing.T) {
	srv, ranges := ctServer(t, 5)
	defer srv.Close()

	a, err := New("clinicaltrials", srv.URL, NewClient(srv.Client(), 0))
	require.NoError(t, err)

	items, err := a.FetchRaw(context.Background(), map[string]any{
		"term":      "heart disease",
		"batchSize": 2,
	})
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, []string{"1-2", "3-4", "5-5"}, *ranges)
}

func TestClinicalTrials_MaxItemsTruncatesExactly(t *testing.T) {
	srv, _ := ctServer(t, 10)
	defer srv.Close()

	a, err := New("clinicaltrials", srv.URL, NewClient(srv.Client(), 0))
	require.NoError(t, err)

	items, err := a.FetchRaw(context.Background(), map[string]any{
		"term":      "cancer",
		"batchSize": 4,
		"maxItems":  6,
	})
	require.NoError(t, err)
	assert.Len(t, items, 6, "cap must hold even mid-batch")
}

func TestClinicalTrials_EmptyTermFetchesNothing(t *testing.T) {
	a := &ClinicalTrials{}
	items, err := a.FetchRaw(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClinicalTrials_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected": true}`)
	}))
	defer srv.Close()

	a, err := New("clinicaltrials", srv.URL, NewClient(srv.Client(), 0))
	require.NoError(t, err)

	_, err = a.FetchRaw(context.Background(), map[string]any{"term": "x"})
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestClinicalTrials_Normalize(t *testing.T) {
	a := &ClinicalTrials{}
	items := []map[string]any{
		{
			"Study": map[string]any{
				"ProtocolSection": map[string]any{
					"IdentificationModule": map[string]any{
						"NCTId":      "NCT00000001",
						"BriefTitle": "A Trial",
					},
					"ContactsLocationsModule": map[string]any{
						"LocationList": map[string]any{
							"Location": []any{
								map[string]any{
									"LocationFacility": "General Hospital",
									"LocationCity":     "Chicago",
									"LocationState":    "Illinois",
								},
							},
						},
					},
				},
			},
		},
		{"NoStudyKey": true},
	}

	set, err := a.Normalize(items, NormalizeOptions{
		Mappings: mapper.Spec{
			"name": {Kind: mapper.KindPath, Path: "$['ProtocolSection.IdentificationModule.BriefTitle']"},
		},
	})
	require.NoError(t, err)
	require.Len(t, set, 1, "item without Study is skipped")

	fields := set["NCT00000001"].Discovery
	assert.Equal(t, "A Trial", fields["name"])
	assert.Equal(t, "General Hospital, Chicago, Illinois", fields["location"])
}

func TestPDAPS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("site_key"))
		switch r.URL.Path {
		case "/siteitem/naloxone/get_by_dataset":
			json.NewEncoder(w).Encode(map[string]any{
				"display_id":    "naloxone",
				"title":         "Naloxone Overdose Prevention Laws",
				"investigators": []any{"A", "B"},
			})
		case "/siteitem/unkeyed/get_by_dataset":
			json.NewEncoder(w).Encode(map[string]any{"title": "No display_id"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a, err := New("pdaps", srv.URL+"/", NewClient(srv.Client(), 0))
	require.NoError(t, err)

	items, err := a.FetchRaw(context.Background(), map[string]any{
		"datasets": []any{"naloxone", "unkeyed"},
		"site_key": "secret",
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	set, err := a.Normalize(items, NormalizeOptions{})
	require.NoError(t, err)
	require.Len(t, set, 1, "item without display_id is skipped")
	assert.Equal(t, "A,B", set["naloxone"].Discovery["investigators"])
}
