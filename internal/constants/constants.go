package constants

import "time"

// API endpoint defaults.
const (
	// DefaultHost is the management API host used when none is configured.
	DefaultHost = "api.contentful.com"

	// DefaultBasePath is the path under which every space lives.
	DefaultBasePath = "/spaces"

	// ClientName identifies this library in the X-Contentful-User-Agent header.
	ClientName = "cma-go"

	// ClientVersion is the library version reported to the server.
	ClientVersion = "1.0.0"
)

// Header names and media types.
const (
	// HeaderVersion carries the optimistic concurrency version.
	HeaderVersion = "X-Contentful-Version"

	// HeaderOrganization selects the organization on space creation.
	HeaderOrganization = "X-Contentful-Organization"

	// HeaderContentType selects the content type on entry creation.
	HeaderContentType = "X-Contentful-Content-Type"

	// HeaderUserAgent is the vendor user agent header.
	HeaderUserAgent = "X-Contentful-User-Agent"

	// HeaderRequestID is the server-assigned request identifier.
	HeaderRequestID = "X-Contentful-Request-Id"

	// HeaderCorrelationID is a client-generated id shared by all attempts of one call.
	HeaderCorrelationID = "X-Request-Correlation-Id"

	// HeaderRetryAfter is the standard rate limit hint.
	HeaderRetryAfter = "Retry-After"

	// MediaTypeManagement is the vendor media type for request bodies.
	MediaTypeManagement = "application/vnd.contentful.management.v1+json"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Admission control and retry defaults.
const (
	// DefaultConcurrency is the number of requests allowed in flight at once.
	DefaultConcurrency = 6

	// DefaultRequestDelay is the minimum spacing between request starts per slot.
	DefaultRequestDelay = 1 * time.Second

	// DefaultRetryMax is the default maximum number of 429 retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the fallback wait before the first retry.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps the fallback wait between retries.
	DefaultRetryWaitMax = 30 * time.Second

	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2
)

// Asset processing.
const (
	// DefaultProcessingCheckWait is the first wait between asset processing checks.
	DefaultProcessingCheckWait = 500 * time.Millisecond

	// DefaultProcessingCheckRetries is the number of checks before giving up.
	DefaultProcessingCheckRetries = 5
)

// Pagination and batching.
const (
	// DefaultPageSize is the page size used when fetching every page.
	DefaultPageSize = 100

	// MaxPageSize is the largest limit the server accepts.
	MaxPageSize = 1000

	// DefaultBatchConcurrency limits goroutines spawned by a batch.
	DefaultBatchConcurrency = 6
)

// Collection paths.
const (
	PathEntries            = "entries"
	PathAssets             = "assets"
	PathContentTypes       = "content_types"
	PathLocales            = "locales"
	PathRoles              = "roles"
	PathSpaceMemberships   = "space_memberships"
	PathAPIKeys            = "api_keys"
	PathWebhookDefinitions = "webhook_definitions"
	PathWebhooks           = "webhooks"
	PathEditorInterface    = "editor_interface"
	PathPublished          = "published"
	PathArchived           = "archived"
)

// Display.
const (
	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// UnknownErrorName is the placeholder error id the server sometimes sends.
	UnknownErrorName = "Unknown"

	// ErrorSysType marks a payload as a server error document.
	ErrorSysType = "Error"
)
