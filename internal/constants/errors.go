package constants

import "errors"

// Configuration errors.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrAccessTokenRequired = errors.New("expected parameter accessToken")
	ErrInvalidHost         = errors.New("host must not contain a scheme or path")
)

// Transport errors.
var (
	ErrNilRequest         = errors.New("request is nil")
	ErrMarshalRequestBody = errors.New("failed to marshal request body")
)

// Operation errors.
var (
	ErrUnsupportedOperation   = errors.New("unsupported operation")
	ErrEmptyID                = errors.New("resource id is empty")
	ErrAssetProcessingTimeout = errors.New("asset is taking longer than expected to process")
	ErrNoFileForLocale        = errors.New("asset has no file for locale")
)
