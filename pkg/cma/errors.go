package cma

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired         = constants.ErrConfigRequired
	ErrAccessTokenRequired    = constants.ErrAccessTokenRequired
	ErrUnsupportedOperation   = constants.ErrUnsupportedOperation
	ErrEmptyID                = constants.ErrEmptyID
	ErrAssetProcessingTimeout = constants.ErrAssetProcessingTimeout
	ErrNoFileForLocale        = constants.ErrNoFileForLocale
)

// Server error ids.
const (
	ErrorNameVersionMismatch = "VersionMismatch"
	ErrorNameNotFound        = "NotFound"
	ErrorNameRateLimit       = "RateLimitExceeded"
	ErrorNameValidation      = "ValidationFailed"
)

// ValidationError reports invalid client configuration. It is returned before
// any request reaches the network.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}

	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RequestDetails describes the request that produced a TransportError.
type RequestDetails struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Method  string            `json:"method"`
	Payload string            `json:"payloadData,omitempty"`
}

// TransportError is the normalized form of any failed call: a non-2xx
// response or a network failure (Status 0).
type TransportError struct {
	Name       string          `json:"-"`
	Request    RequestDetails  `json:"request"`
	Status     int             `json:"status"`
	StatusText string          `json:"statusText"`
	RequestID  string          `json:"requestId,omitempty"`
	Message    string          `json:"message,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	Err        error           `json:"-"`
}

// Error renders the error name followed by the request and response details.
func (e *TransportError) Error() string {
	doc := struct {
		*TransportError
		Cause string `json:"cause,omitempty"`
	}{TransportError: e}

	if e.Err != nil {
		doc.Cause = e.Err.Error()
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return e.Name
	}

	return e.Name + ": " + string(body)
}

// Unwrap returns the network cause, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConflictError is returned when the version sent with a mutating call does
// not match the server's current version. It is never retried.
type ConflictError struct {
	*TransportError
}

// Unwrap exposes the embedded TransportError.
func (e *ConflictError) Unwrap() error {
	return e.TransportError
}

// RateLimitError is returned when 429 responses persist after every retry.
type RateLimitError struct {
	*TransportError

	Attempts int
}

// Unwrap exposes the embedded TransportError.
func (e *RateLimitError) Unwrap() error {
	return e.TransportError
}

// IsConflict reports whether err is a version conflict.
func IsConflict(err error) bool {
	conflictErr := &ConflictError{}

	return errors.As(err, &conflictErr)
}

// IsRateLimited reports whether err is an exhausted rate limit.
func IsRateLimited(err error) bool {
	rateErr := &RateLimitError{}

	return errors.As(err, &rateErr)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	transportErr := &TransportError{}
	if errors.As(err, &transportErr) {
		return transportErr.Status == http.StatusNotFound
	}

	return false
}

// IsValidationError reports whether err is a configuration error.
func IsValidationError(err error) bool {
	validationErr := &ValidationError{}

	return errors.As(err, &validationErr)
}
