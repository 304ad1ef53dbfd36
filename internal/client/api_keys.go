package client

import (
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// APIKeysClient implements cma.APIKeysClient.
type APIKeysClient struct {
	resourceClient[cma.APIKeyFields]
}

// NewAPIKeysClient creates a new API keys client.
func NewAPIKeysClient(httpClient *http.Client) *APIKeysClient {
	binding := cma.NewBinding[cma.APIKeyFields](httpClient, constants.PathAPIKeys,
		cma.WithCapabilities[cma.APIKeyFields](cma.CapEditable),
	)

	return &APIKeysClient{resourceClient: newResourceClient(binding, "api key")}
}
