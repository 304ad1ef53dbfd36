package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

func localeJSON(id string, version int, name string) map[string]interface{} {
	return ResourceJSON(id, "Locale", version, map[string]interface{}{
		"name":                 name,
		"code":                 "en-US",
		"internal_code":        "en-US",
		"default":              true,
		"fallbackCode":         "de-DE",
		"contentManagementApi": true,
		"contentDeliveryApi":   true,
		"optional":             false,
	})
}

func TestLocalesClient_Get(t *testing.T) {
	t.Parallel()

	tests := []TestGetOperation{
		{
			Name:         "existing locale",
			ID:           "l1",
			ExpectedPath: "/spaces/sp1/locales/l1",
			StatusCode:   http.StatusOK,
			Response:     localeJSON("l1", 1, "English"),
		},
		{
			Name:         "server error",
			ID:           "l2",
			ExpectedPath: "/spaces/sp1/locales/l2",
			StatusCode:   http.StatusInternalServerError,
			Response:     ErrorJSON("InternalServerError", "boom"),
			WantErr:      true,
			ErrMessage:   "InternalServerError",
		},
	}

	RunGetTests(t, tests, func(s *SpaceClient) func(context.Context, string) (*cma.Locale, error) {
		return s.Locales().Get
	})
}

func TestLocalesClient_SanitizeAndFilter(t *testing.T) {
	t.Parallel()

	server := NewRecordingServer(t, func(req RecordedRequest) (int, interface{}) {
		if req.Method == http.MethodGet {
			return http.StatusOK, localeJSON("l1", 1, "English")
		}

		return http.StatusOK, localeJSON("l1", 2, "English (US)")
	})

	ctx := context.Background()

	locale, err := NewTestSpace(server.URL).Locales().Get(ctx, "l1")
	require.NoError(t, err)
	server.Next(t)

	assert.NotContains(t, string(locale.Raw()), "internal_code")
	assert.True(t, locale.Attributes.Default)
	assert.Equal(t, "de-DE", locale.Attributes.FallbackCode)

	locale.Attributes.Name = "English (US)"

	updated, err := locale.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, "English (US)", updated.Attributes.Name)

	req := server.Next(t)
	assert.JSONEq(t,
		`{"name":"English (US)","code":"en-US","contentManagementApi":true,"contentDeliveryApi":true,"optional":false}`,
		string(req.Body))

	_, err = updated.Publish(ctx)
	require.ErrorIs(t, err, cma.ErrUnsupportedOperation)

	require.NoError(t, updated.Delete(ctx))
	assert.Equal(t, http.MethodDelete, server.Next(t).Method)
}

func TestLocalesClient_List(t *testing.T) {
	t.Parallel()

	server := NewRecordingServer(t, func(RecordedRequest) (int, interface{}) {
		return http.StatusOK, CollectionJSON(2, 0, 100, localeJSON("l1", 1, "English"), localeJSON("l2", 1, "German"))
	})

	locales, err := NewTestSpace(server.URL).Locales().List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, locales.Items, 2)
	assert.Equal(t, "German", locales.Items[1].Attributes.Name)
	assert.NotContains(t, string(locales.Items[1].Raw()), "internal_code")
	require.NoError(t, locales.Err())

	assert.Equal(t, "/spaces/sp1/locales", server.Next(t).Path)
}
