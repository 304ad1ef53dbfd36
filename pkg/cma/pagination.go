package cma

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// PageFetcher fetches one page of a collection.
type PageFetcher[T any] func(ctx context.Context, params *QueryParams) (*Collection[T], error)

// PaginationIterator walks a collection page by page using skip and limit.
type PaginationIterator[T any] struct {
	ctx     context.Context //nolint:containedctx
	fetch   PageFetcher[T]
	params  *QueryParams
	items   []*Envelope[T]
	index   int
	fetched bool
	done    bool
	skip    int
	total   int
	err     error
}

// NewPaginationIterator creates an iterator over every item matching params.
// A non-positive pageSize selects the default page size.
func NewPaginationIterator[T any](ctx context.Context, fetch PageFetcher[T], params *QueryParams, pageSize int) *PaginationIterator[T] {
	params = params.Clone()

	switch {
	case pageSize <= 0:
		pageSize = constants.DefaultPageSize
	case pageSize > constants.MaxPageSize:
		pageSize = constants.MaxPageSize
	}

	params.Limit = pageSize

	return &PaginationIterator[T]{
		ctx:    ctx,
		fetch:  fetch,
		params: params,
		skip:   params.Skip,
	}
}

// HasNext reports whether another item is available. It fetches the next page
// when the current one is exhausted; a fetch error is reported by Next.
func (it *PaginationIterator[T]) HasNext() bool {
	if it.index < len(it.items) {
		return true
	}

	if it.done {
		return false
	}

	err := it.fetchPage()
	if err != nil {
		it.err = err

		return true
	}

	return it.index < len(it.items)
}

// Next returns the next item.
func (it *PaginationIterator[T]) Next() (*Envelope[T], error) {
	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true

		return nil, err
	}

	if it.index >= len(it.items) {
		if it.done {
			return nil, nil
		}

		err := it.fetchPage()
		if err != nil {
			return nil, err
		}

		if it.index >= len(it.items) {
			return nil, nil
		}
	}

	item := it.items[it.index]
	it.index++

	return item, nil
}

// All drains the iterator.
func (it *PaginationIterator[T]) All() ([]*Envelope[T], error) {
	var all []*Envelope[T]

	err := it.ForEach(func(item *Envelope[T]) error {
		all = append(all, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return all, nil
}

// ForEach calls fn for every remaining item, stopping at the first error.
func (it *PaginationIterator[T]) ForEach(fn func(*Envelope[T]) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		if item == nil {
			return nil
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

func (it *PaginationIterator[T]) fetchPage() error {
	if it.fetched && it.skip >= it.total {
		it.done = true

		return nil
	}

	params := it.params.Clone()
	params.Skip = it.skip

	page, err := it.fetch(it.ctx, params)
	if err != nil {
		return fmt.Errorf("fetching page at skip %d: %w", it.skip, err)
	}

	it.fetched = true
	it.total = page.Total
	it.items = page.Items
	it.index = 0
	it.skip += len(page.Items)

	// An empty page means the server has nothing more even if total says
	// otherwise.
	if len(page.Items) == 0 || it.skip >= it.total {
		it.done = true
	}

	return nil
}

// FetchAll returns every item of the collection, walking skip/limit pages
// until skip plus the items seen reaches the reported total.
func FetchAll[T any](ctx context.Context, fetch PageFetcher[T], params *QueryParams, pageSize int) ([]*Envelope[T], error) {
	return NewPaginationIterator(ctx, fetch, params, pageSize).All()
}
