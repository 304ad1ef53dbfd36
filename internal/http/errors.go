package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// errorDocument is the body the server sends with a failed call.
type errorDocument struct {
	Sys struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"sys"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details"`
	RequestID string          `json:"requestId"`
}

// normalizeResponseError converts a non-2xx response into the error taxonomy:
// 409 becomes *cma.ConflictError, an exhausted 429 *cma.RateLimitError, and
// anything else *cma.TransportError.
func normalizeResponseError(details cma.RequestDetails, resp *cma.Response, attempts int) error {
	transportErr := &cma.TransportError{
		Request:    details,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		RequestID:  resp.Headers.Get(constants.HeaderRequestID),
	}

	var doc errorDocument

	name := ""
	if json.Unmarshal(resp.Body, &doc) == nil {
		name = doc.Sys.ID

		if doc.RequestID != "" {
			transportErr.RequestID = doc.RequestID
		}

		if doc.Sys.Type == constants.ErrorSysType {
			transportErr.Message = doc.Message

			if len(doc.Details) > 0 && string(doc.Details) != "null" {
				transportErr.Details = doc.Details
			}
		}
	}

	if name == "" || name == constants.UnknownErrorName {
		name = strconv.Itoa(resp.StatusCode) + " " + transportErr.StatusText
	}

	transportErr.Name = name

	switch resp.StatusCode {
	case http.StatusConflict:
		return &cma.ConflictError{TransportError: transportErr}
	case http.StatusTooManyRequests:
		return &cma.RateLimitError{TransportError: transportErr, Attempts: attempts}
	default:
		return transportErr
	}
}

// normalizeNetworkError wraps a failure that produced no response.
func normalizeNetworkError(details cma.RequestDetails, err error) error {
	return &cma.TransportError{
		Name:    "NetworkError",
		Request: details,
		Message: err.Error(),
		Err:     err,
	}
}

// requestDetails describes an outgoing request with credentials masked.
func requestDetails(req *http.Request, payload []byte) cma.RequestDetails {
	headers := make(map[string]string, len(req.Header))

	for key := range req.Header {
		headers[key] = req.Header.Get(key)
	}

	if _, ok := headers["Authorization"]; ok {
		headers["Authorization"] = constants.MaskedSecret
	}

	return cma.RequestDetails{
		URL:     req.URL.String(),
		Headers: headers,
		Method:  req.Method,
		Payload: string(payload),
	}
}
