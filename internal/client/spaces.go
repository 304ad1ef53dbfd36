package client

import (
	"net/url"

	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// SpaceClient implements cma.SpaceClient. Every resource client of a space
// shares one transport clone scoped to the space.
type SpaceClient struct {
	id               string
	httpClient       *http.Client
	contentTypes     *ContentTypesClient
	entries          *EntriesClient
	assets           *AssetsClient
	locales          *LocalesClient
	webhooks         *WebhooksClient
	roles            *RolesClient
	spaceMemberships *SpaceMembershipsClient
	apiKeys          *APIKeysClient
}

// NewSpaceClient creates a client for the space with the given id on a clone
// of root.
func NewSpaceClient(root *http.Client, id string) *SpaceClient {
	httpClient := root.Clone(url.PathEscape(id))

	return &SpaceClient{
		id:               id,
		httpClient:       httpClient,
		contentTypes:     NewContentTypesClient(httpClient),
		entries:          NewEntriesClient(httpClient),
		assets:           NewAssetsClient(httpClient),
		locales:          NewLocalesClient(httpClient),
		webhooks:         NewWebhooksClient(httpClient),
		roles:            NewRolesClient(httpClient),
		spaceMemberships: NewSpaceMembershipsClient(httpClient),
		apiKeys:          NewAPIKeysClient(httpClient),
	}
}

// ID implements cma.SpaceClient.ID.
func (s *SpaceClient) ID() string {
	return s.id
}

// HTTPClient returns the space-scoped transport.
func (s *SpaceClient) HTTPClient() *http.Client {
	return s.httpClient
}

// ContentTypes implements cma.SpaceClient.ContentTypes.
func (s *SpaceClient) ContentTypes() cma.ContentTypesClient {
	return s.contentTypes
}

// Entries implements cma.SpaceClient.Entries.
func (s *SpaceClient) Entries() cma.EntriesClient {
	return s.entries
}

// Assets implements cma.SpaceClient.Assets.
func (s *SpaceClient) Assets() cma.AssetsClient {
	return s.assets
}

// Locales implements cma.SpaceClient.Locales.
func (s *SpaceClient) Locales() cma.LocalesClient {
	return s.locales
}

// Webhooks implements cma.SpaceClient.Webhooks.
func (s *SpaceClient) Webhooks() cma.WebhooksClient {
	return s.webhooks
}

// Roles implements cma.SpaceClient.Roles.
func (s *SpaceClient) Roles() cma.RolesClient {
	return s.roles
}

// SpaceMemberships implements cma.SpaceClient.SpaceMemberships.
func (s *SpaceClient) SpaceMemberships() cma.SpaceMembershipsClient {
	return s.spaceMemberships
}

// APIKeys implements cma.SpaceClient.APIKeys.
func (s *SpaceClient) APIKeys() cma.APIKeysClient {
	return s.apiKeys
}

var (
	_ cma.Client                 = (*Client)(nil)
	_ cma.SpaceClient            = (*SpaceClient)(nil)
	_ cma.ContentTypesClient     = (*ContentTypesClient)(nil)
	_ cma.EntriesClient          = (*EntriesClient)(nil)
	_ cma.AssetsClient           = (*AssetsClient)(nil)
	_ cma.LocalesClient          = (*LocalesClient)(nil)
	_ cma.WebhooksClient         = (*WebhooksClient)(nil)
	_ cma.RolesClient            = (*RolesClient)(nil)
	_ cma.SpaceMembershipsClient = (*SpaceMembershipsClient)(nil)
	_ cma.APIKeysClient          = (*APIKeysClient)(nil)
)
