package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/cma/internal/auth"
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// Client implements the cma.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       cma.Logger
	spaces       *cma.Binding[cma.SpaceFields]
}

// New creates a new API client from config. The config is validated and
// copied; zero values take their defaults.
func New(ctx context.Context, config *cma.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	config = config.WithDefaults()

	return NewWithTokenManager(config, auth.NewStaticTokenManager(config.AccessToken))
}

// NewWithTokenManager creates a new API client with a custom token manager.
func NewWithTokenManager(config *cma.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, cma.ErrConfigRequired
	}

	config = config.WithDefaults()
	baseURL := BaseURL(config)

	httpClient := http.NewClient(baseURL, tokenManager, createHTTPClientOptions(config)...)

	client := NewFromHTTPClient(httpClient)
	client.tokenManager = tokenManager
	client.baseURL = baseURL
	client.logger = config.Logger

	return client, nil
}

// NewFromHTTPClient creates a client on an existing transport whose base URL
// is the spaces collection.
func NewFromHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		spaces:     cma.NewBinding[cma.SpaceFields](httpClient, "", cma.WithCapabilities[cma.SpaceFields](cma.CapEditable)),
	}
}

// BaseURL returns the URL every space lives under, e.g.
// "https://api.contentful.com/spaces".
func BaseURL(config *cma.Config) string {
	scheme := "https"
	if config.Insecure {
		scheme = "http"
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = constants.DefaultBasePath
	}

	if basePath[0] != '/' {
		basePath = "/" + basePath
	}

	return scheme + "://" + config.Host + basePath
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *cma.Config) []http.Option {
	httpOpts := []http.Option{
		http.WithConcurrency(config.Concurrency, *config.RequestDelay),
		http.WithRetryConfig(*config.MaxRetries, config.RetryWaitMin, config.RetryWaitMax),
		http.WithRetryOnTooManyRequests(config.RetryEnabled()),
		http.WithTimeout(config.HTTPTimeout),
	}

	logger := config.Logger
	if logger == nil && config.Debug {
		logger = cma.NewHCLogger(nil)
	}

	if logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if len(config.Headers) > 0 {
		httpOpts = append(httpOpts, http.WithHeaders(config.Headers))
	}

	if config.MetricsRegisterer != nil {
		httpOpts = append(httpOpts, http.WithMetrics(http.NewMetrics(config.MetricsRegisterer)))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	return httpOpts
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// HTTPClient returns the root transport.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// GetSpaces implements cma.Client.GetSpaces.
func (c *Client) GetSpaces(ctx context.Context, params *cma.QueryParams) (*cma.SpaceCollection, error) {
	spaces, err := c.spaces.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}

	return spaces, nil
}

// GetSpace implements cma.Client.GetSpace.
func (c *Client) GetSpace(ctx context.Context, id string) (*cma.Space, error) {
	space, err := c.spaces.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting space: %w", err)
	}

	return space, nil
}

// CreateSpace implements cma.Client.CreateSpace. The organization header is
// only sent when organizationID is set.
func (c *Client) CreateSpace(ctx context.Context, fields *cma.SpaceFields, organizationID string) (*cma.Space, error) {
	var headers map[string]string
	if organizationID != "" {
		headers = map[string]string{constants.HeaderOrganization: organizationID}
	}

	space, err := c.spaces.Create(ctx, fields, headers)
	if err != nil {
		return nil, fmt.Errorf("creating space: %w", err)
	}

	return space, nil
}

// Space implements cma.Client.Space.
func (c *Client) Space(space *cma.Space) cma.SpaceClient {
	return c.SpaceByID(space.ID())
}

// SpaceByID implements cma.Client.SpaceByID.
func (c *Client) SpaceByID(id string) cma.SpaceClient {
	return NewSpaceClient(c.httpClient, id)
}
