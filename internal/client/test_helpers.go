package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/internal/constants"
	internalhttp "github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// TestSpaceID is the space every test server serves.
const TestSpaceID = "sp1"

// NewTestClient creates a new test client for a server whose spaces live
// under baseURL + "/spaces". Requests are not paced and 429 retries wait
// only milliseconds.
func NewTestClient(baseURL string) *Client {
	httpClient := internalhttp.NewClient(baseURL+constants.DefaultBasePath, nil,
		internalhttp.WithConcurrency(constants.DefaultConcurrency, 0),
		internalhttp.WithRetryConfig(2, time.Millisecond, 5*time.Millisecond),
	)

	return NewFromHTTPClient(httpClient)
}

// NewTestSpace returns a client for TestSpaceID on a new test client.
func NewTestSpace(baseURL string) *SpaceClient {
	return NewSpaceClient(NewTestClient(baseURL).httpClient, TestSpaceID)
}

// ResourceJSON builds a resource payload: fields plus a sys block.
func ResourceJSON(id, sysType string, version int, fields map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"sys": map[string]interface{}{
			"id":      id,
			"type":    sysType,
			"version": version,
		},
	}

	for key, value := range fields {
		payload[key] = value
	}

	return payload
}

// CollectionJSON builds a collection payload.
func CollectionJSON(total, skip, limit int, items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"sys":   map[string]interface{}{"type": "Array"},
		"total": total,
		"skip":  skip,
		"limit": limit,
		"items": items,
	}
}

// ErrorJSON builds a server error document.
func ErrorJSON(id, message string) map[string]interface{} {
	return map[string]interface{}{
		"sys":       map[string]interface{}{"type": constants.ErrorSysType, "id": id},
		"message":   message,
		"requestId": "test-request",
	}
}

// TestGetOperation represents a generic get operation test case.
type TestGetOperation struct {
	Name         string
	ID           string
	ExpectedPath string
	StatusCode   int
	Response     interface{}
	WantErr      bool
	ErrMessage   string
}

// TestCreateOperation represents a generic create operation test case. An
// empty ID creates with a server-assigned id.
type TestCreateOperation[T any] struct {
	Name            string
	ID              string
	Attrs           *T
	ExpectedPath    string
	ExpectedHeaders map[string]string
	ExpectedBody    map[string]interface{}
	StatusCode      int
	Response        interface{}
	WantErr         bool
	ErrMessage      string
}

// RunGetTests runs a series of get operation tests.
func RunGetTests[T any](
	t *testing.T,
	tests []TestGetOperation,
	getFunc func(*SpaceClient) func(context.Context, string) (*cma.Envelope[T], error),
) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.ExpectedPath, request.URL.Path)
				assert.Equal(t, http.MethodGet, request.Method)
				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(testCase.StatusCode)

				if testCase.Response != nil {
					_ = json.NewEncoder(writer).Encode(testCase.Response)
				}
			}))
			defer server.Close()

			getFn := getFunc(NewTestSpace(server.URL))
			result, err := getFn(context.Background(), testCase.ID)

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, testCase.ID, result.ID())
			}
		})
	}
}

// RunCreateTests runs a series of create operation tests.
func RunCreateTests[T any](
	t *testing.T,
	tests []TestCreateOperation[T],
	createFunc func(*SpaceClient, string) func(context.Context, *T) (*cma.Envelope[T], error),
) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.ExpectedPath, request.URL.Path)

				if testCase.ID == "" {
					assert.Equal(t, http.MethodPost, request.Method)
				} else {
					assert.Equal(t, http.MethodPut, request.Method)
				}

				for key, value := range testCase.ExpectedHeaders {
					assert.Equal(t, value, request.Header.Get(key))
				}

				if testCase.ExpectedBody != nil {
					var body map[string]interface{}

					assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
					assert.Equal(t, testCase.ExpectedBody, body)
				}

				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(testCase.StatusCode)

				if testCase.Response != nil {
					_ = json.NewEncoder(writer).Encode(testCase.Response)
				}
			}))
			defer server.Close()

			createFn := createFunc(NewTestSpace(server.URL), testCase.ID)
			result, err := createFn(context.Background(), testCase.Attrs)

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
			}
		})
	}
}

// RecordedRequest is one request seen by a RecordingServer.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

// RecordingServer answers requests from a handler function and records them.
type RecordingServer struct {
	*httptest.Server

	Requests chan RecordedRequest
}

// NewRecordingServer starts a server that answers with respond and records
// every request.
func NewRecordingServer(t *testing.T, respond func(req RecordedRequest) (int, interface{})) *RecordingServer {
	t.Helper()

	recorder := &RecordingServer{Requests: make(chan RecordedRequest, 64)}

	recorder.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body json.RawMessage

		_ = json.NewDecoder(request.Body).Decode(&body)

		recorded := RecordedRequest{
			Method:  request.Method,
			Path:    request.URL.Path,
			Query:   request.URL.RawQuery,
			Headers: request.Header.Clone(),
			Body:    body,
		}
		recorder.Requests <- recorded

		status, payload := respond(recorded)

		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)

		if payload != nil {
			_ = json.NewEncoder(writer).Encode(payload)
		}
	}))

	t.Cleanup(recorder.Close)

	return recorder
}

// Next returns the next recorded request or fails the test.
func (r *RecordingServer) Next(t *testing.T) RecordedRequest {
	t.Helper()

	select {
	case req := <-r.Requests:
		return req
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no request recorded")

		return RecordedRequest{}
	}
}
