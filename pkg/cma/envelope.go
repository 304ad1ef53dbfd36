package cma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Envelope is one snapshot of a remote resource: its system block, its
// domain attributes and the lifecycle operations of the binding it came from.
//
// The system block is read-only. Attributes may be edited before calling
// Update; every lifecycle call returns a new envelope and leaves the receiver
// untouched.
type Envelope[T any] struct {
	Attributes T

	sys     Sys
	raw     map[string]json.RawMessage
	body    []byte
	binding *Binding[T]
}

// Sys returns a copy of the system block.
func (e *Envelope[T]) Sys() Sys {
	return e.sys.clone()
}

// ID returns the resource id.
func (e *Envelope[T]) ID() string {
	return e.sys.ID
}

// Version returns the server-assigned version.
func (e *Envelope[T]) Version() int {
	return e.sys.Version
}

// Binding returns the binding that produced the envelope.
func (e *Envelope[T]) Binding() *Binding[T] {
	return e.binding
}

// Raw returns a copy of the payload as received from the server, after
// sanitizing.
func (e *Envelope[T]) Raw() []byte {
	return bytes.Clone(e.body)
}

// WithAttributes returns a copy of the envelope carrying attrs.
func (e *Envelope[T]) WithAttributes(attrs T) *Envelope[T] {
	return &Envelope[T]{
		Attributes: attrs,
		sys:        e.sys.clone(),
		raw:        e.raw,
		body:       e.body,
		binding:    e.binding,
	}
}

// MarshalJSON renders the envelope in the wire shape {sys, ...attributes}.
func (e *Envelope[T]) MarshalJSON() ([]byte, error) {
	fields, err := attributeFields(e.Attributes)
	if err != nil {
		return nil, err
	}

	sys, err := json.Marshal(e.sys)
	if err != nil {
		return nil, fmt.Errorf("encoding sys: %w", err)
	}

	fields["sys"] = sys

	return json.Marshal(fields)
}

// IsDraft reports whether the resource has never been published.
func (e *Envelope[T]) IsDraft() bool {
	return e.sys.PublishedVersion == nil
}

// IsPublished reports whether the resource has a published version. It may
// still carry unpublished edits, see IsUpdated.
func (e *Envelope[T]) IsPublished() bool {
	return e.sys.PublishedVersion != nil
}

// IsUpdated reports whether a published resource has changes made after its
// last publish. Publishing advances the version by one, so any version two or
// more above the published version carries unpublished changes.
func (e *Envelope[T]) IsUpdated() bool {
	return e.sys.PublishedVersion != nil && e.sys.Version > *e.sys.PublishedVersion+1
}

// IsArchived reports whether the resource is archived.
func (e *Envelope[T]) IsArchived() bool {
	return e.sys.ArchivedVersion != nil
}

// Update sends the current attributes, asserting the envelope's version.
func (e *Envelope[T]) Update(ctx context.Context) (*Envelope[T], error) {
	return e.binding.update(ctx, e)
}

// Delete removes the resource. The envelope must not be used afterwards.
func (e *Envelope[T]) Delete(ctx context.Context) error {
	return e.binding.delete(ctx, e)
}

// Publish publishes the envelope's version.
func (e *Envelope[T]) Publish(ctx context.Context) (*Envelope[T], error) {
	return e.binding.publish(ctx, e)
}

// Unpublish removes the published version. When the server answers without
// a payload the returned envelope is nil; fetch the resource again to see its
// new state.
func (e *Envelope[T]) Unpublish(ctx context.Context) (*Envelope[T], error) {
	return e.binding.unpublish(ctx, e)
}

// Archive archives the resource.
func (e *Envelope[T]) Archive(ctx context.Context) (*Envelope[T], error) {
	return e.binding.archive(ctx, e)
}

// Unarchive restores an archived resource. Like Unpublish, it returns a nil
// envelope when the server answers without a payload.
func (e *Envelope[T]) Unarchive(ctx context.Context) (*Envelope[T], error) {
	return e.binding.unarchive(ctx, e)
}

// attributeFields encodes attrs as a JSON object keyed by field name, with
// any sys key removed.
func attributeFields(attrs interface{}) (map[string]json.RawMessage, error) {
	body, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encoding attributes: %w", err)
	}

	fields := make(map[string]json.RawMessage)

	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return fields, nil
	}

	err = json.Unmarshal(body, &fields)
	if err != nil {
		return nil, fmt.Errorf("attributes must encode as a JSON object: %w", err)
	}

	delete(fields, "sys")

	return fields, nil
}

// passthroughFields returns the fields of raw that T does not model. They are
// sent back unchanged on update so the server keeps them.
func passthroughFields[T any](raw map[string]json.RawMessage) map[string]json.RawMessage {
	fields := make(map[string]json.RawMessage, len(raw))

	for key, value := range raw {
		if key == "sys" || modelsField[T](key, value) {
			continue
		}

		fields[key] = value
	}

	return fields
}

// modelsField reports whether decoding key into a T and encoding it again
// keeps the key.
func modelsField[T any](key string, value json.RawMessage) bool {
	single, err := json.Marshal(map[string]json.RawMessage{key: value})
	if err != nil {
		return false
	}

	var attrs T

	if json.Unmarshal(single, &attrs) != nil {
		return false
	}

	encoded, err := attributeFields(attrs)
	if err != nil {
		return false
	}

	_, ok := encoded[key]

	return ok
}
