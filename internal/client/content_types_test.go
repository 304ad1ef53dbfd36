package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

func contentTypeJSON(id string, version int) map[string]interface{} {
	return ResourceJSON(id, "ContentType", version, map[string]interface{}{
		"name":         "Blog Post",
		"displayField": "title",
		"fields": []interface{}{
			map[string]interface{}{"id": "title", "name": "Title", "type": "Symbol", "localized": true, "required": true},
		},
	})
}

func editorInterfaceJSON(contentTypeID string, version int) map[string]interface{} {
	payload := ResourceJSON("default", "EditorInterface", version, map[string]interface{}{
		"controls": []interface{}{
			map[string]interface{}{"fieldId": "title", "widgetId": "singleLine"},
		},
	})

	sys, _ := payload["sys"].(map[string]interface{})
	sys["contentType"] = map[string]interface{}{
		"sys": map[string]interface{}{"type": "Link", "linkType": "ContentType", "id": contentTypeID},
	}

	return payload
}

func TestContentTypesClient_Get(t *testing.T) {
	t.Parallel()

	tests := []TestGetOperation{
		{
			Name:         "existing content type",
			ID:           "post",
			ExpectedPath: "/spaces/sp1/content_types/post",
			StatusCode:   http.StatusOK,
			Response:     contentTypeJSON("post", 1),
		},
		{
			Name:       "empty id",
			ID:         "",
			WantErr:    true,
			ErrMessage: cma.ErrEmptyID.Error(),
		},
	}

	RunGetTests(t, tests, func(s *SpaceClient) func(context.Context, string) (*cma.ContentType, error) {
		return s.ContentTypes().Get
	})
}

func TestContentTypesClient_Create(t *testing.T) {
	t.Parallel()

	attrs := &cma.ContentTypeFields{
		Name:         "Blog Post",
		DisplayField: "title",
		Fields:       []cma.Field{{ID: "title", Name: "Title", Type: "Symbol", Localized: true, Required: true}},
	}

	tests := []TestCreateOperation[cma.ContentTypeFields]{
		{
			Name:         "caller-chosen id",
			ID:           "post",
			Attrs:        attrs,
			ExpectedPath: "/spaces/sp1/content_types/post",
			ExpectedHeaders: map[string]string{
				"Content-Type": constants.MediaTypeManagement,
			},
			StatusCode: http.StatusCreated,
			Response:   contentTypeJSON("post", 1),
		},
		{
			Name:         "server-assigned id",
			Attrs:        attrs,
			ExpectedPath: "/spaces/sp1/content_types",
			StatusCode:   http.StatusCreated,
			Response:     contentTypeJSON("generated", 1),
		},
	}

	RunCreateTests(t, tests, func(s *SpaceClient, id string) func(context.Context, *cma.ContentTypeFields) (*cma.ContentType, error) {
		if id == "" {
			return s.ContentTypes().Create
		}

		return func(ctx context.Context, attrs *cma.ContentTypeFields) (*cma.ContentType, error) {
			return s.ContentTypes().CreateWithID(ctx, id, attrs)
		}
	})
}

func TestContentTypesClient_Lifecycle(t *testing.T) {
	t.Parallel()

	server := NewRecordingServer(t, func(req RecordedRequest) (int, interface{}) {
		if req.Method == http.MethodGet {
			return http.StatusOK, contentTypeJSON("post", 1)
		}

		payload := contentTypeJSON("post", 2)
		payload["sys"].(map[string]interface{})["publishedVersion"] = 1

		return http.StatusOK, payload
	})

	contentType, err := NewTestSpace(server.URL).ContentTypes().Get(context.Background(), "post")
	require.NoError(t, err)
	server.Next(t)

	published, err := contentType.Publish(context.Background())
	require.NoError(t, err)
	assert.True(t, published.IsPublished())

	req := server.Next(t)
	assert.Equal(t, "/spaces/sp1/content_types/post/published", req.Path)
	assert.Equal(t, "1", req.Headers.Get(constants.HeaderVersion))

	_, err = published.Archive(context.Background())
	require.ErrorIs(t, err, cma.ErrUnsupportedOperation)
	assert.Empty(t, server.Requests)
}

func TestContentTypesClient_EditorInterface(t *testing.T) {
	t.Parallel()

	server := NewRecordingServer(t, func(req RecordedRequest) (int, interface{}) {
		if req.Method == http.MethodGet {
			return http.StatusOK, editorInterfaceJSON("post", 2)
		}

		return http.StatusOK, editorInterfaceJSON("post", 3)
	})

	ctx := context.Background()
	contentTypes := NewTestSpace(server.URL).ContentTypes()

	editorInterface, err := contentTypes.GetEditorInterface(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, "/spaces/sp1/content_types/post/editor_interface", server.Next(t).Path)

	control := editorInterface.Attributes.ControlForField("title")
	require.NotNil(t, control)
	assert.Equal(t, "singleLine", control.WidgetID)
	assert.Nil(t, editorInterface.Attributes.ControlForField("body"))

	control.WidgetID = "slugEditor"

	updated, err := editorInterface.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version())

	req := server.Next(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/spaces/sp1/content_types/post/editor_interface", req.Path)
	assert.Equal(t, "2", req.Headers.Get(constants.HeaderVersion))
	assert.JSONEq(t, `{"controls":[{"fieldId":"title","widgetId":"slugEditor"}]}`, string(req.Body))

	_, err = editorInterface.Publish(ctx)
	require.ErrorIs(t, err, cma.ErrUnsupportedOperation)

	err = editorInterface.Delete(ctx)
	require.ErrorIs(t, err, cma.ErrUnsupportedOperation)

	_, err = contentTypes.GetEditorInterface(ctx, "")
	require.ErrorIs(t, err, cma.ErrEmptyID)
}
