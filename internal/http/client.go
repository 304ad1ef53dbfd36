package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/cma/internal/auth"
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// Request and Response are the transport-level call types.
type (
	Request  = cma.Request
	Response = cma.Response
)

// Client is the HTTP transport. It admits at most a fixed number of requests
// at once, paces request starts and retries HTTP 429. Clones made with Clone
// or WithPathPrefix share the same admission state.
type Client struct {
	baseURL      string
	prefix       string
	tokenManager auth.TokenManager
	retryClient  *retryablehttp.Client
	admission    *admission
	logger       cma.Logger
	debug        bool
	userAgent    string
	headers      map[string]string
	metrics      *Metrics
	interceptors *cma.InterceptorChain
}

// options collects Option values before the client is assembled.
type options struct {
	logger       cma.Logger
	debug        bool
	userAgent    string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	retryOn429   bool
	concurrency  int
	delay        time.Duration
	headers      map[string]string
	timeout      time.Duration
	httpClient   *http.Client
	metrics      *Metrics
	interceptors *cma.InterceptorChain
}

// Option configures the client.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger cma.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithRetryConfig sets the maximum number of 429 retries and the fallback
// backoff bounds.
func WithRetryConfig(maxRetries int, minWait, maxWait time.Duration) Option {
	return func(o *options) {
		o.retryMax = maxRetries
		o.retryWaitMin = minWait
		o.retryWaitMax = maxWait
	}
}

// WithRetryOnTooManyRequests enables or disables 429 retries.
func WithRetryOnTooManyRequests(enabled bool) Option {
	return func(o *options) {
		o.retryOn429 = enabled
	}
}

// WithConcurrency caps requests in flight and spaces request starts so each
// slot starts at most one request per delay.
func WithConcurrency(concurrency int, delay time.Duration) Option {
	return func(o *options) {
		o.concurrency = concurrency
		o.delay = delay
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		for key, value := range headers {
			o.headers[key] = value
		}
	}
}

// WithTimeout bounds each network round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithMetrics records transport metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithInterceptors runs chain around every call.
func WithInterceptors(chain *cma.InterceptorChain) Option {
	return func(o *options) {
		o.interceptors = chain
	}
}

// NewClient creates a new HTTP client for baseURL. A nil tokenManager sends
// no Authorization header.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	cfg := &options{
		logger:       cma.NopLogger{},
		userAgent:    constants.ClientName + "/" + constants.ClientVersion,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
		retryOn429:   true,
		concurrency:  constants.DefaultConcurrency,
		delay:        constants.DefaultRequestDelay,
		headers:      make(map[string]string),
		timeout:      constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = cma.NopLogger{}
	}

	admission := newAdmission(cfg.concurrency, cfg.delay)
	admission.metrics = cfg.metrics

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = cfg.retryMax
	retryClient.RetryWaitMin = cfg.retryWaitMin
	retryClient.RetryWaitMax = cfg.retryWaitMax
	retryClient.CheckRetry = checkRetry(cfg.retryOn429)
	retryClient.Backoff = retryBackoff
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.RequestLogHook = retryHook(admission, cfg.logger, cfg.metrics)

	if cfg.httpClient != nil {
		retryClient.HTTPClient = cfg.httpClient
	} else {
		retryClient.HTTPClient.Timeout = cfg.timeout
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenManager: tokenManager,
		retryClient:  retryClient,
		admission:    admission,
		logger:       cfg.logger,
		debug:        cfg.debug,
		userAgent:    cfg.userAgent,
		headers:      cfg.headers,
		metrics:      cfg.metrics,
		interceptors: cfg.interceptors,
	}
}

// retryHook counts attempts and re-enters the pacing limiter before every
// retry. The request keeps its admission slot throughout.
func retryHook(admission *admission, logger cma.Logger, metrics *Metrics) retryablehttp.RequestLogHook {
	return func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if counter := attemptsFrom(req.Context()); counter != nil {
			counter.count = attempt + 1
		}

		if attempt == 0 {
			return
		}

		metrics.observeRetry()
		logger.Warn("Retrying request", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL.String(),
			"attempt": attempt,
		})

		// A cancelled context fails the attempt itself.
		_ = admission.pace(req.Context())
	}
}

// Clone returns a client whose paths resolve under prefix, relative to this
// client's own prefix. The clone shares admission, retry settings, logger and
// metrics with its parent.
func (c *Client) Clone(prefix string) *Client {
	clone := *c
	clone.prefix = joinPath(c.prefix, prefix)

	return &clone
}

// WithPathPrefix implements cma.Transport.
func (c *Client) WithPathPrefix(prefix string) cma.Transport {
	return c.Clone(prefix)
}

// Prefix returns the path prefix of this client.
func (c *Client) Prefix() string {
	return c.prefix
}

// Stats returns a snapshot of the shared admission state.
func (c *Client) Stats() Stats {
	return c.admission.stats()
}

// Do executes an HTTP request. On a non-2xx status the response is returned
// together with the normalized error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, constants.ErrNilRequest
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, req)

	interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp, err)
	if err == nil && interceptErr != nil {
		return resp, interceptErr
	}

	return resp, err
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	ctx, counter := withAttempts(ctx)

	var body interface{}
	if payload != nil {
		body = payload
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	err = c.setHeaders(ctx, httpReq.Header, req.Headers)
	if err != nil {
		return nil, err
	}

	details := requestDetails(httpReq.Request, payload)

	err = c.admission.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.admission.release()

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":         httpReq.Method,
			"url":            details.URL,
			"correlation_id": httpReq.Header.Get(constants.HeaderCorrelationID),
		})
	}

	start := time.Now()

	httpResp, err := c.retryClient.Do(httpReq)
	if err != nil {
		c.metrics.observeResult(req.Method, 0)
		c.logger.Error("HTTP Error", map[string]interface{}{
			"method": httpReq.Method,
			"url":    details.URL,
			"error":  err.Error(),
		})

		return nil, normalizeNetworkError(details, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, normalizeNetworkError(details, fmt.Errorf("failed to read response body: %w", err))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	c.metrics.observeResult(req.Method, resp.StatusCode)

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":   httpReq.Method,
			"url":      details.URL,
			"status":   resp.StatusCode,
			"attempts": counter.count,
			"duration": time.Since(start).String(),
		})
	}

	if resp.StatusCode >= http.StatusBadRequest {
		callErr := normalizeResponseError(details, resp, counter.count)
		c.logger.Error("HTTP Error", map[string]interface{}{
			"method": httpReq.Method,
			"url":    details.URL,
			"status": resp.StatusCode,
		})

		return resp, callErr
	}

	return resp, nil
}

func (c *Client) setHeaders(ctx context.Context, header http.Header, extra map[string]string) error {
	header.Set("Content-Type", constants.MediaTypeManagement)
	header.Set("Accept", "application/json")
	header.Set("User-Agent", c.userAgent)
	header.Set(constants.HeaderUserAgent, "sdk "+constants.ClientName+"/"+constants.ClientVersion+"; platform go")
	header.Set(constants.HeaderCorrelationID, uuid.NewString())

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to get auth token: %w", err)
		}

		header.Set("Authorization", "Bearer "+token)
	}

	for key, value := range c.headers {
		header.Set(key, value)
	}

	for key, value := range extra {
		header.Set(key, value)
	}

	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := c.baseURL

	if joined := joinPath(c.prefix, path); joined != "" {
		full += "/" + joined
	}

	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	return full
}

// joinPath joins non-empty path segments with single slashes.
func joinPath(parts ...string) string {
	segments := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			segments = append(segments, part)
		}
	}

	return strings.Join(segments, "/")
}

// encodeBody returns the wire form of body. Byte slices and raw JSON are sent
// unchanged; anything else is encoded as JSON.
func encodeBody(body interface{}) ([]byte, error) {
	switch value := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	case json.RawMessage:
		return value, nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", constants.ErrMarshalRequestBody, err)
		}

		return encoded, nil
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}
