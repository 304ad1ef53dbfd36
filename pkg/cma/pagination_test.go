package cma_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

// pagedCollection serves a fixed list of entries in skip/limit pages.
type pagedCollection struct {
	t        *testing.T
	items    []*cma.Entry
	total    int
	requests []cma.QueryParams
	failAt   int
}

func newPagedCollection(t *testing.T, count int) *pagedCollection {
	t.Helper()

	items := make([]*cma.Entry, 0, count)
	for i := range count {
		items = append(items, wrapEntry(t, failingTransport{t: t}, entryPayload(fmt.Sprintf("e%d", i+1), 1, nil, nil)))
	}

	return &pagedCollection{t: t, items: items, total: count, failAt: -1}
}

func (p *pagedCollection) fetch(_ context.Context, params *cma.QueryParams) (*cma.EntryCollection, error) {
	p.requests = append(p.requests, *params)

	if p.failAt == params.Skip {
		return nil, errors.New("page unavailable")
	}

	end := min(params.Skip+params.Limit, len(p.items))

	var page []*cma.Entry
	if params.Skip < end {
		page = p.items[params.Skip:end]
	}

	return &cma.EntryCollection{Total: p.total, Skip: params.Skip, Limit: params.Limit, Items: page}, nil
}

func TestPaginationIterator_HasNext(t *testing.T) {
	t.Parallel()

	pages := newPagedCollection(t, 3)
	iterator := cma.NewPaginationIterator[cma.EntryFields](context.Background(), pages.fetch, nil, 2)

	var ids []string

	for iterator.HasNext() {
		item, err := iterator.Next()
		require.NoError(t, err)
		require.NotNil(t, item)

		ids = append(ids, item.ID())
	}

	assert.Equal(t, []string{"e1", "e2", "e3"}, ids)
	require.Len(t, pages.requests, 2)
	assert.Equal(t, 0, pages.requests[0].Skip)
	assert.Equal(t, 2, pages.requests[1].Skip)
	assert.Equal(t, 2, pages.requests[1].Limit)

	item, err := iterator.Next()
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestPaginationIterator_PageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pageSize int
		expected int
	}{
		{name: "default", pageSize: 0, expected: 100},
		{name: "negative", pageSize: -5, expected: 100},
		{name: "explicit", pageSize: 25, expected: 25},
		{name: "clamped", pageSize: 5000, expected: 1000},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			pages := newPagedCollection(t, 1)

			_, err := cma.FetchAll[cma.EntryFields](context.Background(), pages.fetch, nil, testCase.pageSize)
			require.NoError(t, err)
			require.Len(t, pages.requests, 1)
			assert.Equal(t, testCase.expected, pages.requests[0].Limit)
		})
	}
}

func TestFetchAll(t *testing.T) {
	t.Parallel()

	t.Run("walks every page", func(t *testing.T) {
		t.Parallel()

		pages := newPagedCollection(t, 7)
		params := cma.NewQueryParams().WithContentType("post")

		all, err := cma.FetchAll[cma.EntryFields](context.Background(), pages.fetch, params, 3)
		require.NoError(t, err)
		require.Len(t, all, 7)
		assert.Equal(t, "e7", all[6].ID())
		assert.Len(t, pages.requests, 3)
		assert.Equal(t, "post", pages.requests[2].ContentType)
		assert.Zero(t, params.Limit)
	})

	t.Run("starts at the caller's skip", func(t *testing.T) {
		t.Parallel()

		pages := newPagedCollection(t, 5)

		all, err := cma.FetchAll[cma.EntryFields](context.Background(), pages.fetch, cma.NewQueryParams().WithSkip(3), 10)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "e4", all[0].ID())
	})

	t.Run("empty collection", func(t *testing.T) {
		t.Parallel()

		pages := newPagedCollection(t, 0)

		all, err := cma.FetchAll[cma.EntryFields](context.Background(), pages.fetch, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, all)
		assert.Len(t, pages.requests, 1)
	})

	t.Run("stops on an empty page despite total", func(t *testing.T) {
		t.Parallel()

		pages := newPagedCollection(t, 2)
		pages.total = 10

		all, err := cma.FetchAll[cma.EntryFields](context.Background(), pages.fetch, nil, 2)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.Len(t, pages.requests, 2)
	})

	t.Run("surfaces fetch errors", func(t *testing.T) {
		t.Parallel()

		pages := newPagedCollection(t, 5)
		pages.failAt = 2

		all, err := cma.FetchAll[cma.EntryFields](context.Background(), pages.fetch, nil, 2)
		require.Error(t, err)
		assert.Nil(t, all)
		assert.Contains(t, err.Error(), "fetching page at skip 2")
	})
}

func TestPaginationIterator_ForEachStops(t *testing.T) {
	t.Parallel()

	pages := newPagedCollection(t, 5)
	stop := errors.New("stop")

	var seen int

	err := cma.NewPaginationIterator[cma.EntryFields](context.Background(), pages.fetch, nil, 2).
		ForEach(func(*cma.Entry) error {
			seen++
			if seen == 3 {
				return stop
			}

			return nil
		})

	require.ErrorIs(t, err, stop)
	assert.Equal(t, 3, seen)
	assert.Len(t, pages.requests, 2)
}
