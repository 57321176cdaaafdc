package mapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMapFields(t *testing.T) {
	record := map[string]any{
		"a":     map[string]any{"b": "<b>hi</b>"},
		"title": "Study One",
		"OverallOfficial": []any{
			map[string]any{"OverallOfficialName": "Dr. A"},
		},
	}

	t.Run("literal", func(t *testing.T) {
		got, err := MapFields(record, Spec{
			"tag": {Kind: KindLiteral, Literal: "fixed"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"tag": "fixed"}, got)
	})

	t.Run("path reference", func(t *testing.T) {
		got, err := MapFields(record, Spec{
			"name": {Kind: KindPath, Path: "OverallOfficial[0].OverallOfficialName"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Dr. A"}, got)
	})

	t.Run("filtered path", func(t *testing.T) {
		got, err := MapFields(record, Spec{
			"x": {Kind: KindFiltered, Path: "a.b", Filters: []string{"strip_html"}},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": "hi"}, got)
	})

	t.Run("absent path degrades to empty string", func(t *testing.T) {
		got, err := MapFields(record, Spec{
			"x": {Kind: KindPath, Path: "not.there"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": ""}, got)
	})

	t.Run("unknown filter is a no-op", func(t *testing.T) {
		got, err := MapFields(record, Spec{
			"x": {Kind: KindFiltered, Path: "title", Filters: []string{"nope"}},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": "Study One"}, got)
	})

	t.Run("invalid path is a configuration error", func(t *testing.T) {
		_, err := MapFields(record, Spec{
			"x": {Kind: KindPath, Path: "a["},
		})
		require.Error(t, err)
	})
}

func TestFieldSpec_UnmarshalYAML(t *testing.T) {
	var spec Spec
	err := yaml.Unmarshal([]byte(`
summary: a fixed value
title: "path:StudyTitle"
description:
  path: Desc
  filters: [strip_html]
`), &spec)
	require.NoError(t, err)

	assert.Equal(t, FieldSpec{Kind: KindLiteral, Literal: "a fixed value"}, spec["summary"])
	assert.Equal(t, FieldSpec{Kind: KindPath, Path: "StudyTitle"}, spec["title"])
	assert.Equal(t, FieldSpec{Kind: KindFiltered, Path: "Desc", Filters: []string{"strip_html"}}, spec["description"])
}

func TestFieldSpec_UnmarshalJSON(t *testing.T) {
	var spec Spec
	err := json.Unmarshal([]byte(`{
		"summary": 42,
		"title": "path:StudyTitle",
		"description": {"path": "Desc", "filters": ["strip_html"]}
	}`), &spec)
	require.NoError(t, err)

	assert.Equal(t, FieldSpec{Kind: KindLiteral, Literal: float64(42)}, spec["summary"])
	assert.Equal(t, FieldSpec{Kind: KindPath, Path: "StudyTitle"}, spec["title"])
	assert.Equal(t, FieldSpec{Kind: KindFiltered, Path: "Desc", Filters: []string{"strip_html"}}, spec["description"])
}

func TestSpec_Validate(t *testing.T) {
	good := Spec{
		"a": {Kind: KindPath, Path: "x.y"},
		"b": {Kind: KindLiteral, Literal: 1},
	}
	require.NoError(t, good.Validate())

	bad := Spec{"a": {Kind: KindPath, Path: "x["}}
	require.Error(t, bad.Validate())
}
