package client

import (
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// RolesClient implements cma.RolesClient.
type RolesClient struct {
	resourceClient[cma.RoleFields]
}

// NewRolesClient creates a new roles client.
func NewRolesClient(httpClient *http.Client) *RolesClient {
	binding := cma.NewBinding[cma.RoleFields](httpClient, constants.PathRoles,
		cma.WithCapabilities[cma.RoleFields](cma.CapEditable),
	)

	return &RolesClient{resourceClient: newResourceClient(binding, "role")}
}
