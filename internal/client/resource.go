package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

// resourceClient implements the read and create surface shared by every
// space-scoped resource type on top of a binding.
type resourceClient[T any] struct {
	binding *cma.Binding[T]
	noun    string
}

func newResourceClient[T any](binding *cma.Binding[T], noun string) resourceClient[T] {
	return resourceClient[T]{binding: binding, noun: noun}
}

// Get fetches one resource by id.
func (c *resourceClient[T]) Get(ctx context.Context, id string) (*cma.Envelope[T], error) {
	envelope, err := c.binding.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", c.noun, err)
	}

	return envelope, nil
}

// List fetches one page of resources.
func (c *resourceClient[T]) List(ctx context.Context, params *cma.QueryParams) (*cma.Collection[T], error) {
	collection, err := c.binding.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.noun, err)
	}

	return collection, nil
}

// Create creates a resource with a server-assigned id.
func (c *resourceClient[T]) Create(ctx context.Context, attrs *T) (*cma.Envelope[T], error) {
	envelope, err := c.binding.Create(ctx, attrs, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.noun, err)
	}

	return envelope, nil
}

// CreateWithID creates a resource under a caller-chosen id.
func (c *resourceClient[T]) CreateWithID(ctx context.Context, id string, attrs *T) (*cma.Envelope[T], error) {
	envelope, err := c.binding.CreateWithID(ctx, id, attrs, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s: %w", c.noun, id, err)
	}

	return envelope, nil
}

// Binding returns the binding behind the client.
func (c *resourceClient[T]) Binding() *cma.Binding[T] {
	return c.binding
}
