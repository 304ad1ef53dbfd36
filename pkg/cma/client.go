package cma

import (
	"context"
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// Client is the root of the API: it lists, fetches and creates spaces and
// hands out clients scoped to one space.
type Client interface {
	GetSpaces(ctx context.Context, params *QueryParams) (*SpaceCollection, error)
	GetSpace(ctx context.Context, id string) (*Space, error)
	CreateSpace(ctx context.Context, fields *SpaceFields, organizationID string) (*Space, error)

	// Space returns a client scoped to space. It shares the root client's
	// admission control.
	Space(space *Space) SpaceClient
	// SpaceByID returns a client scoped to the space with the given id
	// without fetching it.
	SpaceByID(id string) SpaceClient
}

// SpaceClient provides the resource clients of one space.
type SpaceClient interface {
	ID() string
	ContentTypes() ContentTypesClient
	Entries() EntriesClient
	Assets() AssetsClient
	Locales() LocalesClient
	Webhooks() WebhooksClient
	Roles() RolesClient
	SpaceMemberships() SpaceMembershipsClient
	APIKeys() APIKeysClient
}

// ResourceClient is the read and create surface shared by every resource type.
type ResourceClient[T any] interface {
	Get(ctx context.Context, id string) (*Envelope[T], error)
	List(ctx context.Context, params *QueryParams) (*Collection[T], error)
	Create(ctx context.Context, attrs *T) (*Envelope[T], error)
}

// IdentifiedCreator creates resources under caller-chosen ids.
type IdentifiedCreator[T any] interface {
	CreateWithID(ctx context.Context, id string, attrs *T) (*Envelope[T], error)
}

// ContentTypesClient manages content types and their editor interfaces.
type ContentTypesClient interface {
	ResourceClient[ContentTypeFields]
	IdentifiedCreator[ContentTypeFields]

	GetEditorInterface(ctx context.Context, contentTypeID string) (*EditorInterface, error)
}

// EntriesClient manages entries. Entries are created for a content type.
type EntriesClient interface {
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, params *QueryParams) (*EntryCollection, error)
	Create(ctx context.Context, contentTypeID string, attrs *EntryFields) (*Entry, error)
	CreateWithID(ctx context.Context, contentTypeID, id string, attrs *EntryFields) (*Entry, error)
}

// AssetsClient manages assets and their file processing.
type AssetsClient interface {
	ResourceClient[AssetFields]
	IdentifiedCreator[AssetFields]

	// ProcessForLocale starts processing of the file for locale and waits
	// until the server reports it processed.
	ProcessForLocale(ctx context.Context, asset *Asset, locale string) (*Asset, error)
	// ProcessForAllLocales processes every locale that carries a file.
	ProcessForAllLocales(ctx context.Context, asset *Asset) (*Asset, error)
}

// LocalesClient manages locales.
type LocalesClient interface {
	ResourceClient[LocaleFields]
}

// WebhooksClient manages webhook definitions and reads their call logs.
type WebhooksClient interface {
	ResourceClient[WebhookFields]
	IdentifiedCreator[WebhookFields]

	Calls(ctx context.Context, webhook *Webhook) (*WebhookCallCollection, error)
	Call(ctx context.Context, webhook *Webhook, callID string) (*WebhookCallDetails, error)
	Health(ctx context.Context, webhook *Webhook) (*WebhookHealth, error)
}

// RolesClient manages roles.
type RolesClient interface {
	ResourceClient[RoleFields]
	IdentifiedCreator[RoleFields]
}

// SpaceMembershipsClient manages space memberships.
type SpaceMembershipsClient interface {
	ResourceClient[SpaceMembershipFields]
	IdentifiedCreator[SpaceMembershipFields]
}

// APIKeysClient manages delivery API keys.
type APIKeysClient interface {
	ResourceClient[APIKeyFields]
	IdentifiedCreator[APIKeyFields]
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a Client. It is copied
// by cmaclient.New, so later changes have no effect on a built client.
//
// # Admission control
//
// At most Concurrency requests are in flight at once across the root client
// and every space client derived from it; further requests wait in FIFO
// order. Each slot starts at most one request per RequestDelay.
//
// # Retries
//
// Only HTTP 429 is retried, and only when RetryOnTooManyRequests is true. The
// wait honours Retry-After and otherwise backs off exponentially between
// RetryWaitMin and RetryWaitMax. Every other failure surfaces immediately.
type Config struct {
	// Host is the API host without scheme, e.g. "api.contentful.com".
	Host string
	// Insecure selects http instead of https. Intended for local fakes.
	Insecure bool
	// BasePath is the path every space lives under, "/spaces" by default.
	BasePath string
	// AccessToken is the management token sent as a Bearer credential.
	AccessToken string

	// Concurrency is the number of requests allowed in flight at once.
	Concurrency int
	// RequestDelay is the minimum spacing between request starts per slot.
	// Nil means one second; zero turns pacing off.
	RequestDelay *time.Duration
	// MaxRetries is the maximum number of 429 retries per call. Nil means 5.
	MaxRetries *int
	// RetryOnTooManyRequests enables 429 retries. Nil means true.
	RetryOnTooManyRequests *bool
	// RetryWaitMin is the fallback wait before the first retry.
	RetryWaitMin time.Duration
	// RetryWaitMax caps the fallback wait between retries.
	RetryWaitMax time.Duration

	// HTTPTimeout bounds one network round trip.
	HTTPTimeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Headers are sent with every request.
	Headers map[string]string

	// Logger receives transport logs.
	Logger Logger
	// Debug enables request and response logging.
	Debug bool
	// MetricsRegisterer, when set, receives the transport's Prometheus metrics.
	MetricsRegisterer prometheus.Registerer
	// Interceptors run around every call.
	Interceptors *InterceptorChain
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() *Config {
	return &Config{
		Host:                   constants.DefaultHost,
		BasePath:               constants.DefaultBasePath,
		Concurrency:            constants.DefaultConcurrency,
		RequestDelay:           Ptr(constants.DefaultRequestDelay),
		MaxRetries:             Ptr(constants.DefaultRetryMax),
		RetryOnTooManyRequests: Ptr(true),
		RetryWaitMin:           constants.DefaultRetryWaitMin,
		RetryWaitMax:           constants.DefaultRetryWaitMax,
		HTTPTimeout:            constants.DefaultHTTPTimeout,
	}
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c *Config) WithDefaults() *Config {
	defaults := DefaultConfig()
	out := *c

	if out.Host == "" {
		out.Host = defaults.Host
	}

	if out.BasePath == "" {
		out.BasePath = defaults.BasePath
	}

	if out.Concurrency == 0 {
		out.Concurrency = defaults.Concurrency
	}

	out.RequestDelay = orDefault(out.RequestDelay, defaults.RequestDelay)
	out.MaxRetries = orDefault(out.MaxRetries, defaults.MaxRetries)

	out.RetryOnTooManyRequests = orDefault(out.RetryOnTooManyRequests, defaults.RetryOnTooManyRequests)

	if out.RetryWaitMin == 0 {
		out.RetryWaitMin = defaults.RetryWaitMin
	}

	if out.RetryWaitMax == 0 {
		out.RetryWaitMax = defaults.RetryWaitMax
	}

	if out.HTTPTimeout == 0 {
		out.HTTPTimeout = defaults.HTTPTimeout
	}

	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for key, value := range c.Headers {
			out.Headers[key] = value
		}
	}

	return &out
}

// Ptr returns a pointer to v, for the optional Config fields.
func Ptr[T any](v T) *T {
	return &v
}

// orDefault returns a fresh copy of value, or fallback when value is nil.
func orDefault[T any](value, fallback *T) *T {
	if value == nil {
		return fallback
	}

	return Ptr(*value)
}

// RetryEnabled reports whether 429 responses are retried.
func (c *Config) RetryEnabled() bool {
	return c.RetryOnTooManyRequests == nil || *c.RetryOnTooManyRequests
}

// Validate checks the configuration and returns a *ValidationError for the
// first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return &ValidationError{Reason: "config is required", Err: ErrConfigRequired}
	}

	err := validation.ValidateStruct(c,
		validation.Field(&c.AccessToken, validation.Required.Error(ErrAccessTokenRequired.Error())),
		validation.Field(&c.Host, validation.Match(hostPattern).Error(constants.ErrInvalidHost.Error())),
		validation.Field(&c.Concurrency, validation.Min(0)),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.RequestDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryWaitMin, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryWaitMax, validation.Min(c.RetryWaitMin)),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for _, name := range validationOrder {
			fieldErr, ok := fieldErrs[name]
			if !ok {
				continue
			}

			validationErr := &ValidationError{Field: name, Reason: fieldErr.Error(), Err: fieldErr}
			if name == "AccessToken" {
				validationErr.Err = ErrAccessTokenRequired
			}

			return validationErr
		}
	}

	return &ValidationError{Reason: err.Error(), Err: err}
}

// hostPattern matches a bare host name or address with an optional port.
var hostPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+(:[0-9]+)?$`)

// validationOrder lists config fields in the order problems are reported.
var validationOrder = []string{
	"AccessToken", "Host", "Concurrency", "MaxRetries", "RequestDelay", "RetryWaitMin", "RetryWaitMax",
}
