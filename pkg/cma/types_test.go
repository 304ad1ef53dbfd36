package cma_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *cma.QueryParams
		expected string
	}{
		{name: "nil params", params: nil, expected: ""},
		{name: "empty params", params: cma.NewQueryParams(), expected: ""},
		{
			name:     "paging",
			params:   cma.NewQueryParams().WithSkip(200).WithLimit(100),
			expected: "limit=100&skip=200",
		},
		{
			name:     "content type and order",
			params:   cma.NewQueryParams().WithContentType("post").WithOrder("-sys.createdAt", "fields.title"),
			expected: "content_type=post&order=-sys.createdAt%2Cfields.title",
		},
		{
			name:     "select and filters",
			params:   cma.NewQueryParams().WithSelect("sys.id", "fields.title").WithFilter("fields.tags[in]", "a", "b"),
			expected: "fields.tags%5Bin%5D=a%2Cb&select=sys.id%2Cfields.title",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, testCase.params.ToValues().Encode())
		})
	}
}

func TestQueryParams_Clone(t *testing.T) {
	t.Parallel()

	original := cma.NewQueryParams().WithOrder("sys.id").WithFilter("k", "v")
	clone := original.Clone()

	clone.WithOrder("fields.title").WithFilter("k", "w").WithSkip(5)

	assert.Equal(t, []string{"sys.id"}, original.Order)
	assert.Equal(t, []string{"v"}, original.Filters["k"])
	assert.Zero(t, original.Skip)

	var nilParams *cma.QueryParams

	assert.NotNil(t, nilParams.Clone())
}

func TestQueryParams_WithFilterOnZeroValue(t *testing.T) {
	t.Parallel()

	params := &cma.QueryParams{}
	params.WithFilter("sys.id[ne]", "x")

	assert.Equal(t, "x", params.ToValues().Get("sys.id[ne]"))
}

func TestLocalizedFields(t *testing.T) {
	t.Parallel()

	fields := cma.LocalizedFields{}

	_, ok := fields.Get("title", "en-US")
	assert.False(t, ok)

	fields.Set("title", "en-US", "Hello")
	fields.Set("title", "de-DE", "Hallo")

	value, ok := fields.Get("title", "de-DE")
	require.True(t, ok)
	assert.Equal(t, "Hallo", value)

	_, ok = fields.Get("title", "fr-FR")
	assert.False(t, ok)
}

func TestAssetFields_Processed(t *testing.T) {
	t.Parallel()

	attrs := cma.AssetFields{
		Fields: cma.AssetContent{
			File: map[string]*cma.AssetFile{
				"en-US": {FileName: "a.png", URL: "//images.example.com/a.png"},
				"de-DE": {FileName: "a.png", Upload: "https://upload.example.com/a.png"},
				"fr-FR": nil,
			},
		},
	}

	assert.True(t, attrs.Processed("en-US"))
	assert.False(t, attrs.Processed("de-DE"))
	assert.False(t, attrs.Processed("fr-FR"))
	assert.False(t, attrs.Processed("it-IT"))
	assert.ElementsMatch(t, []string{"en-US", "de-DE", "fr-FR"}, attrs.Locales())
}

func TestBinding_WrapCollection(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"sys": {"type": "Array"},
		"total": 3, "skip": 0, "limit": 2,
		"items": [
			{"sys": {"id": "e1", "version": 1}, "fields": {}},
			{"sys": {"id": "e2", "version": 2, "publishedVersion": 1}, "fields": {}}
		],
		"errors": [
			{"sys": {"type": "error", "id": "notResolvable"}, "details": {"linkType": "Entry", "id": "gone"}}
		]
	}`)

	collection, err := cma.NewBinding[cma.EntryFields](failingTransport{t: t}, "entries").WrapCollection(body)
	require.NoError(t, err)

	assert.Equal(t, 3, collection.Total)
	assert.Equal(t, 2, collection.Limit)
	require.Len(t, collection.Items, 2)
	assert.True(t, collection.Items[0].IsDraft())
	assert.True(t, collection.Items[1].IsPublished())

	err = collection.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notResolvable")

	empty := &cma.EntryCollection{}
	assert.NoError(t, empty.Err())
}

func TestBinding_WrapErrors(t *testing.T) {
	t.Parallel()

	binding := cma.NewBinding[cma.EntryFields](failingTransport{t: t}, "entries")

	_, err := binding.Wrap([]byte(`not json`))
	require.Error(t, err)

	_, err = binding.Wrap([]byte(`{"sys": "nope"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding sys")

	_, err = binding.WrapCollection([]byte(`{"items": [42]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrapping item 0")
}

func TestBinding_WrapCopiesPayload(t *testing.T) {
	t.Parallel()

	body := []byte(`{"sys":{"id":"s1","version":1},"name":"Space"}`)

	space, err := cma.NewBinding[cma.SpaceFields](failingTransport{t: t}, "").Wrap(body)
	require.NoError(t, err)

	copy(body, `{"sys":{"id":"XX"`)

	var raw map[string]json.RawMessage

	require.NoError(t, json.Unmarshal(space.Raw(), &raw))
	assert.JSONEq(t, `{"id":"s1","version":1}`, string(raw["sys"]))
	assert.Equal(t, "Space", space.Attributes.Name)
}
