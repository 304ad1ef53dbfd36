package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/cma/internal/constants"
	internalhttp "github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// ContentTypesClient implements cma.ContentTypesClient.
type ContentTypesClient struct {
	resourceClient[cma.ContentTypeFields]

	editorInterfaces *cma.Binding[cma.EditorInterfaceFields]
}

// NewContentTypesClient creates a new content types client. Content types
// cannot be archived.
func NewContentTypesClient(httpClient *internalhttp.Client) *ContentTypesClient {
	binding := cma.NewBinding[cma.ContentTypeFields](httpClient, constants.PathContentTypes,
		cma.WithCapabilities[cma.ContentTypeFields](cma.CapPublishable),
	)

	editorInterfaces := cma.NewBinding[cma.EditorInterfaceFields](httpClient, constants.PathContentTypes,
		cma.WithCapabilities[cma.EditorInterfaceFields](cma.CapUpdate),
		cma.WithUpdatePath[cma.EditorInterfaceFields](editorInterfacePathForSys),
	)

	return &ContentTypesClient{
		resourceClient:   newResourceClient(binding, "content type"),
		editorInterfaces: editorInterfaces,
	}
}

// GetEditorInterface implements cma.ContentTypesClient.GetEditorInterface.
func (c *ContentTypesClient) GetEditorInterface(ctx context.Context, contentTypeID string) (*cma.EditorInterface, error) {
	if contentTypeID == "" {
		return nil, cma.ErrEmptyID
	}

	resp, err := c.editorInterfaces.Transport().Do(ctx, &cma.Request{
		Method: http.MethodGet,
		Path:   editorInterfacePath(contentTypeID),
	})
	if err != nil {
		return nil, fmt.Errorf("getting editor interface for %s: %w", contentTypeID, err)
	}

	editorInterface, err := c.editorInterfaces.Wrap(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing editor interface: %w", err)
	}

	return editorInterface, nil
}

func editorInterfacePath(contentTypeID string) string {
	return constants.PathContentTypes + "/" + url.PathEscape(contentTypeID) + "/" + constants.PathEditorInterface
}

// editorInterfacePathForSys resolves the update path from the content type
// link in the editor interface's system block.
func editorInterfacePathForSys(sys cma.Sys) string {
	contentTypeID := ""
	if sys.ContentType != nil {
		contentTypeID = sys.ContentType.Sys.ID
	}

	return editorInterfacePath(contentTypeID)
}
