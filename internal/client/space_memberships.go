package client

import (
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// SpaceMembershipsClient implements cma.SpaceMembershipsClient.
type SpaceMembershipsClient struct {
	resourceClient[cma.SpaceMembershipFields]
}

// NewSpaceMembershipsClient creates a new space memberships client.
func NewSpaceMembershipsClient(httpClient *http.Client) *SpaceMembershipsClient {
	binding := cma.NewBinding[cma.SpaceMembershipFields](httpClient, constants.PathSpaceMemberships,
		cma.WithCapabilities[cma.SpaceMembershipFields](cma.CapEditable),
	)

	return &SpaceMembershipsClient{resourceClient: newResourceClient(binding, "space membership")}
}
