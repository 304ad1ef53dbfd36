// Package integration exercises complete client workflows against an
// in-memory server that keeps resource state and enforces optimistic
// concurrency the way the real API does.
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
	"github.com/fivetwenty-io/cma/pkg/cmaclient"
)

// TestToken is the access token the fake server accepts.
const TestToken = "integration-token"

// record is one stored resource.
type record struct {
	sys    cma.Sys
	fields map[string]json.RawMessage
}

func (r *record) payload() map[string]interface{} {
	out := make(map[string]interface{}, len(r.fields)+1)
	for key, value := range r.fields {
		out[key] = value
	}

	out["sys"] = r.sys

	return out
}

// collection keeps resources in creation order.
type collection struct {
	items map[string]*record
	order []string
}

// FakeServer is an in-memory management API.
type FakeServer struct {
	*httptest.Server

	mu          sync.Mutex
	spaces      *collection
	collections map[string]*collection
	nextID      int
	throttle    int
	latency     time.Duration

	inFlight int32
	peak     int32
	requests int32
}

// NewFakeServer starts a fake server that is closed with the test.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()

	fake := &FakeServer{
		spaces:      newCollection(),
		collections: make(map[string]*collection),
	}
	fake.Server = httptest.NewServer(fake)
	t.Cleanup(fake.Close)

	return fake
}

func newCollection() *collection {
	return &collection{items: make(map[string]*record)}
}

// NewClient creates a client for the fake server. configure may adjust the
// config before the client is built.
func (f *FakeServer) NewClient(t *testing.T, configure func(*cma.Config)) cma.Client {
	t.Helper()

	serverURL, err := url.Parse(f.URL)
	require.NoError(t, err)

	config := &cma.Config{
		Host:         serverURL.Host,
		Insecure:     true,
		AccessToken:  TestToken,
		RequestDelay: cma.Ptr(time.Millisecond),
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	}

	if configure != nil {
		configure(config)
	}

	client, err := cmaclient.New(t.Context(), config)
	require.NoError(t, err)

	return client
}

// Throttle answers the next n requests with 429.
func (f *FakeServer) Throttle(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.throttle = n
}

// SetLatency delays every response.
func (f *FakeServer) SetLatency(latency time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.latency = latency
}

// PeakInFlight returns the largest number of requests handled at once.
func (f *FakeServer) PeakInFlight() int {
	return int(atomic.LoadInt32(&f.peak))
}

// Requests returns the number of requests received.
func (f *FakeServer) Requests() int {
	return int(atomic.LoadInt32(&f.requests))
}

// ServeHTTP implements http.Handler.
func (f *FakeServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	atomic.AddInt32(&f.requests, 1)

	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	for {
		old := atomic.LoadInt32(&f.peak)
		if current <= old || atomic.CompareAndSwapInt32(&f.peak, old, current) {
			break
		}
	}

	f.mu.Lock()
	latency := f.latency
	f.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.throttle > 0 {
		f.throttle--
		writer.Header().Set("Retry-After", "0")
		writeError(writer, http.StatusTooManyRequests, cma.ErrorNameRateLimit)

		return
	}

	if request.Header.Get("Authorization") != "Bearer "+TestToken {
		writeError(writer, http.StatusUnauthorized, "AccessTokenInvalid")

		return
	}

	var body map[string]json.RawMessage
	if request.Body != nil {
		_ = json.NewDecoder(request.Body).Decode(&body)
	}

	delete(body, "sys")

	parts := strings.Split(strings.Trim(request.URL.Path, "/"), "/")
	if parts[0] != "spaces" {
		writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)

		return
	}

	switch len(parts) {
	case 1:
		f.serveCollection(writer, request, f.spaces, "Space", "", body)
	case 2:
		f.serveEntity(writer, request, f.spaces, parts[1], body)
	default:
		if _, ok := f.spaces.items[parts[1]]; !ok {
			writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)

			return
		}

		f.serveSpace(writer, request, parts[1], parts[2:], body)
	}
}

func (f *FakeServer) serveSpace(writer http.ResponseWriter, request *http.Request, spaceID string, rest []string, body map[string]json.RawMessage) {
	key := spaceID + "/" + rest[0]

	items, ok := f.collections[key]
	if !ok {
		items = newCollection()
		f.collections[key] = items
	}

	switch len(rest) {
	case 1:
		f.serveCollection(writer, request, items, sysType(rest[0]), spaceID, body)
	case 2:
		f.serveEntity(writer, request, items, rest[1], body)
	case 3:
		f.serveState(writer, request, items, rest[1], rest[2])
	case 5:
		f.serveProcess(writer, request, items, rest[1], rest[3])
	default:
		writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)
	}
}

func (f *FakeServer) serveCollection(writer http.ResponseWriter, request *http.Request, items *collection, typ, spaceID string, body map[string]json.RawMessage) {
	switch request.Method {
	case http.MethodGet:
		query := request.URL.Query()
		skip, _ := strconv.Atoi(query.Get("skip"))

		limit, err := strconv.Atoi(query.Get("limit"))
		if err != nil || limit <= 0 {
			limit = 100
		}

		var matched []*record

		for _, id := range items.order {
			item := items.items[id]

			contentType := query.Get("content_type")
			if contentType != "" && (item.sys.ContentType == nil || item.sys.ContentType.Sys.ID != contentType) {
				continue
			}

			matched = append(matched, item)
		}

		page := make([]interface{}, 0, limit)
		for index := skip; index < len(matched) && index < skip+limit; index++ {
			page = append(page, matched[index].payload())
		}

		writeJSON(writer, http.StatusOK, map[string]interface{}{
			"sys":   map[string]interface{}{"type": "Array"},
			"total": len(matched),
			"skip":  skip,
			"limit": limit,
			"items": page,
		})
	case http.MethodPost:
		f.nextID++
		id := fmt.Sprintf("%s-%d", strings.ToLower(typ), f.nextID)
		created := f.create(items, id, typ, spaceID, request, body)
		writeJSON(writer, http.StatusCreated, created.payload())
	default:
		writeError(writer, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func (f *FakeServer) create(items *collection, id, typ, spaceID string, request *http.Request, body map[string]json.RawMessage) *record {
	now := time.Now().UTC()
	created := &record{
		sys: cma.Sys{
			ID:        id,
			Type:      typ,
			Version:   1,
			CreatedAt: &now,
			UpdatedAt: &now,
		},
		fields: body,
	}

	if spaceID != "" {
		created.sys.Space = cma.NewLink("Space", spaceID)
	}

	if contentType := request.Header.Get("X-Contentful-Content-Type"); contentType != "" {
		created.sys.ContentType = cma.NewLink("ContentType", contentType)
	}

	items.items[id] = created
	items.order = append(items.order, id)

	return created
}

func (f *FakeServer) serveEntity(writer http.ResponseWriter, request *http.Request, items *collection, id string, body map[string]json.RawMessage) {
	item, exists := items.items[id]

	switch request.Method {
	case http.MethodGet:
		if !exists {
			writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)

			return
		}

		writeJSON(writer, http.StatusOK, item.payload())
	case http.MethodPut:
		if !exists {
			typ := "Space"
			spaceID := ""

			if items != f.spaces {
				typ, spaceID = f.describe(items)
			}

			created := f.create(items, id, typ, spaceID, request, body)
			writeJSON(writer, http.StatusCreated, created.payload())

			return
		}

		if !checkVersion(writer, request, item) {
			return
		}

		item.fields = body
		item.sys.Version++
		writeJSON(writer, http.StatusOK, item.payload())
	case http.MethodDelete:
		if !exists {
			writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)

			return
		}

		delete(items.items, id)

		for index, existing := range items.order {
			if existing == id {
				items.order = append(items.order[:index], items.order[index+1:]...)

				break
			}
		}

		writer.WriteHeader(http.StatusNoContent)
	default:
		writeError(writer, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func (f *FakeServer) serveState(writer http.ResponseWriter, request *http.Request, items *collection, id, state string) {
	item, exists := items.items[id]
	if !exists {
		writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)

		return
	}

	switch {
	case state == "published" && request.Method == http.MethodPut:
		if !checkVersion(writer, request, item) {
			return
		}

		published := item.sys.Version
		item.sys.PublishedVersion = &published
		item.sys.PublishedCounter++
	case state == "published" && request.Method == http.MethodDelete:
		if item.sys.PublishedVersion == nil {
			writeError(writer, http.StatusBadRequest, "NotPublished")

			return
		}

		item.sys.PublishedVersion = nil
	case state == "archived" && request.Method == http.MethodPut:
		if !checkVersion(writer, request, item) {
			return
		}

		if item.sys.PublishedVersion != nil {
			writeError(writer, http.StatusBadRequest, "Published")

			return
		}

		archived := item.sys.Version
		item.sys.ArchivedVersion = &archived
	case state == "archived" && request.Method == http.MethodDelete:
		if item.sys.ArchivedVersion == nil {
			writeError(writer, http.StatusBadRequest, "NotArchived")

			return
		}

		item.sys.ArchivedVersion = nil
	default:
		writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)

		return
	}

	item.sys.Version++
	writeJSON(writer, http.StatusOK, item.payload())
}

// serveProcess marks the asset file for locale as processed immediately.
// Like the real API it leaves the version alone.
func (f *FakeServer) serveProcess(writer http.ResponseWriter, request *http.Request, items *collection, id, locale string) {
	item, exists := items.items[id]
	if !exists || request.Method != http.MethodPut {
		writeError(writer, http.StatusNotFound, cma.ErrorNameNotFound)

		return
	}

	if !checkVersion(writer, request, item) {
		return
	}

	var content struct {
		File map[string]map[string]interface{} `json:"file"`
	}

	var rest map[string]json.RawMessage

	_ = json.Unmarshal(item.fields["fields"], &content)
	_ = json.Unmarshal(item.fields["fields"], &rest)

	if rest == nil {
		rest = make(map[string]json.RawMessage)
	}

	file, ok := content.File[locale]
	if !ok {
		writeError(writer, http.StatusUnprocessableEntity, cma.ErrorNameValidation)

		return
	}

	file["url"] = fmt.Sprintf("//assets.example.com/%s/%v", id, file["fileName"])
	delete(file, "upload")

	encoded, _ := json.Marshal(content.File)
	rest["file"] = encoded
	item.fields["fields"], _ = json.Marshal(rest)

	writer.WriteHeader(http.StatusNoContent)
}

// describe recovers the resource type and space of a collection.
func (f *FakeServer) describe(items *collection) (string, string) {
	for key, candidate := range f.collections {
		if candidate == items {
			spaceID, name, _ := strings.Cut(key, "/")

			return sysType(name), spaceID
		}
	}

	return "", ""
}

func checkVersion(writer http.ResponseWriter, request *http.Request, item *record) bool {
	if request.Header.Get("X-Contentful-Version") != strconv.Itoa(item.sys.Version) {
		writeError(writer, http.StatusConflict, cma.ErrorNameVersionMismatch)

		return false
	}

	return true
}

func sysType(collectionName string) string {
	switch collectionName {
	case "entries":
		return "Entry"
	case "assets":
		return "Asset"
	case "content_types":
		return "ContentType"
	case "locales":
		return "Locale"
	case "webhook_definitions":
		return "WebhookDefinition"
	case "roles":
		return "Role"
	case "space_memberships":
		return "SpaceMembership"
	case "api_keys":
		return "ApiKey"
	default:
		return "Resource"
	}
}

func writeJSON(writer http.ResponseWriter, status int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/vnd.contentful.management.v1+json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}

func writeError(writer http.ResponseWriter, status int, name string) {
	writeJSON(writer, status, map[string]interface{}{
		"sys":       map[string]interface{}{"type": "Error", "id": name},
		"message":   http.StatusText(status),
		"requestId": fmt.Sprintf("fake-%d", time.Now().UnixNano()),
	})
}
