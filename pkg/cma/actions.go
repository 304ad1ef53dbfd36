package cma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// Capability is a set of lifecycle operations a resource type supports.
type Capability uint8

// Lifecycle capabilities.
const (
	CapUpdate Capability = 1 << iota
	CapDelete
	CapPublish
	CapArchive
)

// Common capability sets.
const (
	CapEditable    = CapUpdate | CapDelete
	CapPublishable = CapEditable | CapPublish
	CapAll         = CapPublishable | CapArchive
)

// Has reports whether c includes every bit of other.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Binding ties a resource type to a transport and a collection path. It
// wraps server payloads into envelopes and implements the lifecycle
// operations those envelopes expose, the same way for every resource type.
type Binding[T any] struct {
	transport    Transport
	collection   string
	capabilities Capability
	sanitize     func(map[string]json.RawMessage)
	filterUpdate func(map[string]json.RawMessage)
	updatePath   func(Sys) string
}

// BindingOption configures a Binding.
type BindingOption[T any] func(*Binding[T])

// WithCapabilities restricts the lifecycle operations of the binding.
func WithCapabilities[T any](capabilities Capability) BindingOption[T] {
	return func(b *Binding[T]) {
		b.capabilities = capabilities
	}
}

// WithSanitizer removes or rewrites server-internal fields before wrapping.
func WithSanitizer[T any](sanitize func(map[string]json.RawMessage)) BindingOption[T] {
	return func(b *Binding[T]) {
		b.sanitize = sanitize
	}
}

// WithUpdateFilter removes server-owned fields from update bodies.
func WithUpdateFilter[T any](filter func(map[string]json.RawMessage)) BindingOption[T] {
	return func(b *Binding[T]) {
		b.filterUpdate = filter
	}
}

// WithUpdatePath overrides the path used by Update.
func WithUpdatePath[T any](path func(Sys) string) BindingOption[T] {
	return func(b *Binding[T]) {
		b.updatePath = path
	}
}

// NewBinding creates a binding for the collection at path. All lifecycle
// operations are enabled unless WithCapabilities says otherwise.
func NewBinding[T any](transport Transport, collection string, opts ...BindingOption[T]) *Binding[T] {
	binding := &Binding[T]{
		transport:    transport,
		collection:   collection,
		capabilities: CapAll,
	}

	for _, opt := range opts {
		opt(binding)
	}

	return binding
}

// Transport returns the transport the binding issues calls through.
func (b *Binding[T]) Transport() Transport {
	return b.transport
}

// Collection returns the collection path.
func (b *Binding[T]) Collection() string {
	return b.collection
}

// Capabilities returns the supported lifecycle operations.
func (b *Binding[T]) Capabilities() Capability {
	return b.capabilities
}

// Wrap turns a raw resource payload into an envelope. The payload is copied,
// so later changes to raw do not reach the envelope.
func (b *Binding[T]) Wrap(raw []byte) (*Envelope[T], error) {
	fields := make(map[string]json.RawMessage)

	err := json.Unmarshal(raw, &fields)
	if err != nil {
		return nil, fmt.Errorf("decoding resource: %w", err)
	}

	return b.wrapFields(fields)
}

func (b *Binding[T]) wrapFields(fields map[string]json.RawMessage) (*Envelope[T], error) {
	if b.sanitize != nil {
		b.sanitize(fields)
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding resource: %w", err)
	}

	envelope := &Envelope[T]{
		raw:     fields,
		body:    body,
		binding: b,
	}

	if sysRaw, ok := fields["sys"]; ok {
		err := json.Unmarshal(sysRaw, &envelope.sys)
		if err != nil {
			return nil, fmt.Errorf("decoding sys: %w", err)
		}
	}

	attrs := make(map[string]json.RawMessage, len(fields))

	for key, value := range fields {
		if key != "sys" {
			attrs[key] = value
		}
	}

	attrsBody, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encoding attributes: %w", err)
	}

	err = json.Unmarshal(attrsBody, &envelope.Attributes)
	if err != nil {
		return nil, fmt.Errorf("decoding attributes: %w", err)
	}

	return envelope, nil
}

// WrapCollection turns a raw collection payload into a Collection.
func (b *Binding[T]) WrapCollection(raw []byte) (*Collection[T], error) {
	var page struct {
		Total  int               `json:"total"`
		Skip   int               `json:"skip"`
		Limit  int               `json:"limit"`
		Items  []json.RawMessage `json:"items"`
		Errors []CollectionError `json:"errors"`
	}

	err := json.Unmarshal(raw, &page)
	if err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}

	collection := &Collection[T]{
		Total:  page.Total,
		Skip:   page.Skip,
		Limit:  page.Limit,
		Items:  make([]*Envelope[T], 0, len(page.Items)),
		Errors: page.Errors,
	}

	for index, item := range page.Items {
		envelope, err := b.Wrap(item)
		if err != nil {
			return nil, fmt.Errorf("wrapping item %d: %w", index, err)
		}

		collection.Items = append(collection.Items, envelope)
	}

	return collection, nil
}

// Get fetches one resource by id.
func (b *Binding[T]) Get(ctx context.Context, id string) (*Envelope[T], error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	return b.call(ctx, http.MethodGet, b.entityPath(id), nil, nil)
}

// List fetches one page of the collection.
func (b *Binding[T]) List(ctx context.Context, params *QueryParams) (*Collection[T], error) {
	resp, err := b.transport.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   b.collection,
		Query:  params.ToValues(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", b.describe(), err)
	}

	return b.WrapCollection(resp.Body)
}

// Create posts attrs to the collection; the server assigns the id.
func (b *Binding[T]) Create(ctx context.Context, attrs *T, headers map[string]string) (*Envelope[T], error) {
	body, err := b.createBody(attrs)
	if err != nil {
		return nil, err
	}

	return b.call(ctx, http.MethodPost, b.collection, body, headers)
}

// CreateWithID creates the resource under a caller-chosen id.
func (b *Binding[T]) CreateWithID(ctx context.Context, id string, attrs *T, headers map[string]string) (*Envelope[T], error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	body, err := b.createBody(attrs)
	if err != nil {
		return nil, err
	}

	return b.call(ctx, http.MethodPut, b.entityPath(id), body, headers)
}

func (b *Binding[T]) createBody(attrs *T) (json.RawMessage, error) {
	if attrs == nil {
		return json.RawMessage("{}"), nil
	}

	fields, err := attributeFields(attrs)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", b.describe(), err)
	}

	return body, nil
}

func (b *Binding[T]) update(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
	if !b.capabilities.Has(CapUpdate) {
		return nil, fmt.Errorf("%w: update %s", ErrUnsupportedOperation, b.describe())
	}

	fields := passthroughFields[T](envelope.raw)

	attrs, err := attributeFields(envelope.Attributes)
	if err != nil {
		return nil, err
	}

	for key, value := range attrs {
		fields[key] = value
	}

	if b.filterUpdate != nil {
		b.filterUpdate(fields)
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", b.describe(), err)
	}

	path := b.entityPath(envelope.sys.ID)
	if b.updatePath != nil {
		path = b.updatePath(envelope.sys)
	}

	return b.call(ctx, http.MethodPut, path, json.RawMessage(body), versionHeader(envelope))
}

func (b *Binding[T]) delete(ctx context.Context, envelope *Envelope[T]) error {
	if !b.capabilities.Has(CapDelete) {
		return fmt.Errorf("%w: delete %s", ErrUnsupportedOperation, b.describe())
	}

	_, err := b.transport.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   b.entityPath(envelope.sys.ID),
	})
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", b.describe(), envelope.sys.ID, err)
	}

	return nil
}

func (b *Binding[T]) publish(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
	if !b.capabilities.Has(CapPublish) {
		return nil, fmt.Errorf("%w: publish %s", ErrUnsupportedOperation, b.describe())
	}

	return b.call(ctx, http.MethodPut, b.entityPath(envelope.sys.ID, constants.PathPublished), nil, versionHeader(envelope))
}

func (b *Binding[T]) unpublish(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
	if !b.capabilities.Has(CapPublish) {
		return nil, fmt.Errorf("%w: unpublish %s", ErrUnsupportedOperation, b.describe())
	}

	return b.callOptional(ctx, http.MethodDelete, b.entityPath(envelope.sys.ID, constants.PathPublished))
}

func (b *Binding[T]) archive(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
	if !b.capabilities.Has(CapArchive) {
		return nil, fmt.Errorf("%w: archive %s", ErrUnsupportedOperation, b.describe())
	}

	return b.call(ctx, http.MethodPut, b.entityPath(envelope.sys.ID, constants.PathArchived), nil, versionHeader(envelope))
}

func (b *Binding[T]) unarchive(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
	if !b.capabilities.Has(CapArchive) {
		return nil, fmt.Errorf("%w: unarchive %s", ErrUnsupportedOperation, b.describe())
	}

	return b.callOptional(ctx, http.MethodDelete, b.entityPath(envelope.sys.ID, constants.PathArchived))
}

// call issues a request and wraps the response payload.
func (b *Binding[T]) call(ctx context.Context, method, path string, body interface{}, headers map[string]string) (*Envelope[T], error) {
	resp, err := b.send(ctx, method, path, body, headers)
	if err != nil {
		return nil, err
	}

	return b.wrapResponse(resp)
}

// callOptional is call for operations the server may answer without a
// payload. An empty body yields a nil envelope and no error.
func (b *Binding[T]) callOptional(ctx context.Context, method, path string) (*Envelope[T], error) {
	resp, err := b.send(ctx, method, path, nil, nil)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, nil //nolint:nilnil // no payload to wrap
	}

	return b.wrapResponse(resp)
}

func (b *Binding[T]) send(ctx context.Context, method, path string, body interface{}, headers map[string]string) (*Response, error) {
	resp, err := b.transport.Do(ctx, &Request{
		Method:  method,
		Path:    path,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), path, err)
	}

	return resp, nil
}

func (b *Binding[T]) wrapResponse(resp *Response) (*Envelope[T], error) {
	envelope, err := b.Wrap(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wrapping %s: %w", b.describe(), err)
	}

	return envelope, nil
}

func (b *Binding[T]) entityPath(id string, suffix ...string) string {
	parts := make([]string, 0, len(suffix)+2)

	if b.collection != "" {
		parts = append(parts, b.collection)
	}

	parts = append(parts, url.PathEscape(id))
	parts = append(parts, suffix...)

	return strings.Join(parts, "/")
}

func (b *Binding[T]) describe() string {
	if b.collection == "" {
		return "resource"
	}

	return b.collection
}

func versionHeader[T any](envelope *Envelope[T]) map[string]string {
	return map[string]string{
		constants.HeaderVersion: strconv.Itoa(envelope.sys.Version),
	}
}
