package cma

import (
	"context"
	"net/http"
	"net/url"
)

// Transport executes API calls on behalf of envelopes and resource clients.
// The concrete implementation lives in internal/http and is shared, together
// with its admission control, by every scope derived from it.
type Transport interface {
	// Do executes one logical call. Non-2xx responses are returned as
	// *TransportError, *ConflictError or *RateLimitError.
	Do(ctx context.Context, req *Request) (*Response, error)

	// WithPathPrefix returns a transport resolving paths under prefix that
	// shares the receiver's admission control and retry settings.
	WithPathPrefix(prefix string) Transport
}

// Request describes one logical API call.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Headers  map[string]string
	Body     interface{}
	Metadata map[string]interface{}
}

// Response is the decoded result of a call.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}
