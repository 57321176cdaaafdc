package populate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metastore/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
requests_per_second: 5
sources:
  drug_policy:
    adapter: pdaps
    url: https://api.example.org/
    filters:
      datasets: [naloxone]
    field_mappings:
      name: "path:title"
      commons: "PDAPS"
    keep_original_fields: true
    select_field:
      field_name: commons
      field_value: PDAPS
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.RequestsPerSecond)
	require.Contains(t, cfg.Sources, "drug_policy")
	src := cfg.Sources["drug_policy"]
	assert.Equal(t, "pdaps", src.Adapter)
	assert.True(t, src.KeepOriginalFields)
	require.NotNil(t, src.SelectField)
	assert.Equal(t, "commons", src.SelectField.FieldName)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown adapter",
			content: `
sources:
  bad:
    adapter: dataverse
    url: https://api.example.org/
`,
		},
		{
			name: "missing url",
			content: `
sources:
  bad:
    adapter: pdaps
`,
		},
		{
			name:    "no sources",
			content: `sources: {}`,
		},
		{
			name:    "not yaml",
			content: `{{{{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadConfig(path)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoadConfig_BadMappingPath(t *testing.T) {
	path := writeConfig(t, `
sources:
  bad:
    adapter: pdaps
    url: https://api.example.org/
    field_mappings:
      name: "path:a["
`)
	_, err := LoadConfig(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/siteitem/alpha/get_by_dataset":
			json.NewEncoder(w).Encode(map[string]any{
				"display_id": "alpha",
				"title":      "Alpha Laws",
				"commons":    "PDAPS",
			})
		case "/siteitem/beta/get_by_dataset":
			json.NewEncoder(w).Encode(map[string]any{
				"display_id": "beta",
				"title":      "Beta Laws",
				"commons":    "Other",
			})
		default:
			http.Error(w, "down", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	cfg := &Config{
		Sources: map[string]Source{
			"pdaps_commons": {
				Adapter: "pdaps",
				URL:     srv.URL + "/",
				Filters: map[string]any{
					"datasets": []any{"alpha", "beta"},
				},
				KeepOriginalFields: true,
				SelectField: &SelectField{
					FieldName:  "commons",
					FieldValue: "PDAPS",
				},
			},
			"broken": {
				Adapter: "pdaps",
				URL:     srv.URL + "/broken/",
				Filters: map[string]any{
					"datasets": []any{"whatever"},
				},
			},
		},
	}

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	result, err := Run(context.Background(), cfg, st)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"broken"}, result.Failed)
	assert.Equal(t, map[string]int{"pdaps_commons": 1}, result.Loaded)

	doc, err := st.Get(context.Background(), "alpha")
	require.NoError(t, err)
	discovery, ok := doc["gen3_discovery"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alpha Laws", discovery["title"])
	assert.Equal(t, "pdaps_commons", discovery["commons_name"])

	// "beta" fails the select_field prefilter.
	_, err = st.Get(context.Background(), "beta")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_NoMatchingRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"display_id": "only",
			"commons":    "Elsewhere",
		})
	}))
	defer srv.Close()

	cfg := &Config{
		Sources: map[string]Source{
			"src": {
				Adapter: "pdaps",
				URL:     srv.URL + "/",
				Filters: map[string]any{"datasets": []any{"only"}},
				SelectField: &SelectField{
					FieldName:  "commons",
					FieldValue: "Nowhere",
				},
			},
		},
	}

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	result, err := Run(context.Background(), cfg, st)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 0, result.Loaded["src"])

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
