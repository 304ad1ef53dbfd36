package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// EntriesClient implements cma.EntriesClient.
type EntriesClient struct {
	resourceClient[cma.EntryFields]
}

// NewEntriesClient creates a new entries client.
func NewEntriesClient(httpClient *http.Client) *EntriesClient {
	binding := cma.NewBinding[cma.EntryFields](httpClient, constants.PathEntries)

	return &EntriesClient{resourceClient: newResourceClient(binding, "entry")}
}

// Create implements cma.EntriesClient.Create.
func (c *EntriesClient) Create(ctx context.Context, contentTypeID string, attrs *cma.EntryFields) (*cma.Entry, error) {
	entry, err := c.binding.Create(ctx, attrs, contentTypeHeader(contentTypeID))
	if err != nil {
		return nil, fmt.Errorf("creating entry: %w", err)
	}

	return entry, nil
}

// CreateWithID implements cma.EntriesClient.CreateWithID.
func (c *EntriesClient) CreateWithID(ctx context.Context, contentTypeID, id string, attrs *cma.EntryFields) (*cma.Entry, error) {
	entry, err := c.binding.CreateWithID(ctx, id, attrs, contentTypeHeader(contentTypeID))
	if err != nil {
		return nil, fmt.Errorf("creating entry %s: %w", id, err)
	}

	return entry, nil
}

func contentTypeHeader(contentTypeID string) map[string]string {
	return map[string]string{constants.HeaderContentType: contentTypeID}
}
