package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

func setupSpace(t *testing.T, client cma.Client) cma.SpaceClient {
	t.Helper()

	space, err := client.CreateSpace(context.Background(), &cma.SpaceFields{Name: "Integration", DefaultLocale: "en-US"}, "org-1")
	require.NoError(t, err)

	return client.Space(space)
}

func entryFields(title string) *cma.EntryFields {
	fields := cma.LocalizedFields{}
	fields.Set("title", "en-US", title)

	return &cma.EntryFields{Fields: fields}
}

func TestWorkflow_EntryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := NewFakeServer(t)
	space := setupSpace(t, fake.NewClient(t, nil))

	contentType, err := space.ContentTypes().CreateWithID(ctx, "post", &cma.ContentTypeFields{
		Name:         "Post",
		DisplayField: "title",
		Fields:       []cma.Field{{ID: "title", Name: "Title", Type: "Symbol", Localized: true}},
	})
	require.NoError(t, err)
	assert.True(t, contentType.IsDraft())

	contentType, err = contentType.Publish(ctx)
	require.NoError(t, err)
	assert.True(t, contentType.IsPublished())

	entry, err := space.Entries().Create(ctx, "post", entryFields("Hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Version())
	assert.Equal(t, "post", entry.Sys().ContentType.Sys.ID)
	assert.True(t, entry.IsDraft())

	entry.Attributes.Fields.Set("title", "en-US", "Hello, world")

	edited, err := entry.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, edited.Version())
	assert.Equal(t, 1, entry.Version())

	_, err = entry.Update(ctx)
	require.Error(t, err)
	assert.True(t, cma.IsConflict(err), "stale envelope must conflict: %v", err)

	published, err := edited.Publish(ctx)
	require.NoError(t, err)
	assert.True(t, published.IsPublished())
	assert.False(t, published.IsUpdated())

	published.Attributes.Fields.Set("title", "en-US", "Hello again")

	changed, err := published.Update(ctx)
	require.NoError(t, err)
	assert.True(t, changed.IsUpdated())

	unpublished, err := changed.Unpublish(ctx)
	require.NoError(t, err)
	assert.True(t, unpublished.IsDraft())

	archived, err := unpublished.Archive(ctx)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived())

	restored, err := archived.Unarchive(ctx)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived())

	fetched, err := space.Entries().Get(ctx, entry.ID())
	require.NoError(t, err)
	assert.Equal(t, restored.Version(), fetched.Version())

	title, _ := fetched.Attributes.Fields.Get("title", "en-US")
	assert.Equal(t, "Hello again", title)

	require.NoError(t, fetched.Delete(ctx))

	_, err = space.Entries().Get(ctx, entry.ID())
	require.Error(t, err)
	assert.True(t, cma.IsNotFound(err))
}

func TestWorkflow_RateLimits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := NewFakeServer(t)
	client := fake.NewClient(t, func(config *cma.Config) {
		config.MaxRetries = cma.Ptr(3)
	})

	space := setupSpace(t, client)

	fake.Throttle(3)

	locales, err := space.Locales().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, locales.Items)

	fake.Throttle(10)

	_, err = space.Locales().List(ctx, nil)
	require.Error(t, err)
	assert.True(t, cma.IsRateLimited(err))

	rateErr := &cma.RateLimitError{}
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 4, rateErr.Attempts)

	noRetry := fake.NewClient(t, func(config *cma.Config) {
		retry := false
		config.RetryOnTooManyRequests = &retry
	})

	fake.Throttle(1)

	_, err = noRetry.GetSpaces(ctx, nil)
	require.Error(t, err)
	assert.True(t, cma.IsRateLimited(err))

	fake.Throttle(0)
}

func TestWorkflow_SharedAdmission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := NewFakeServer(t)
	client := fake.NewClient(t, func(config *cma.Config) {
		config.Concurrency = 2
	})

	first := setupSpace(t, client)
	second := setupSpace(t, client)

	_, err := first.Entries().CreateWithID(ctx, "post", "e1", entryFields("one"))
	require.NoError(t, err)
	_, err = second.Entries().CreateWithID(ctx, "post", "e1", entryFields("two"))
	require.NoError(t, err)

	fake.SetLatency(20 * time.Millisecond)

	var waitGroup sync.WaitGroup

	errs := make(chan error, 12)

	for i := range 12 {
		space := first
		if i%2 == 1 {
			space = second
		}

		waitGroup.Add(1)

		go func(space cma.SpaceClient) {
			defer waitGroup.Done()

			_, err := space.Entries().Get(ctx, "e1")
			errs <- err
		}(space)
	}

	waitGroup.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, fake.PeakInFlight(), 2)
}

func TestWorkflow_PaginationAndBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := NewFakeServer(t)
	space := setupSpace(t, fake.NewClient(t, nil))

	for i := range 7 {
		_, err := space.Entries().Create(ctx, "post", entryFields(fmt.Sprintf("Post %d", i)))
		require.NoError(t, err)
	}

	_, err := space.Entries().Create(ctx, "page", entryFields("About"))
	require.NoError(t, err)

	posts, err := cma.FetchAll[cma.EntryFields](ctx, space.Entries().List, cma.NewQueryParams().WithContentType("post"), 3)
	require.NoError(t, err)
	require.Len(t, posts, 7)

	results, err := cma.NewBatchExecutor[cma.EntryFields](4).PublishAll(ctx, posts)
	require.NoError(t, err)

	for _, result := range results {
		assert.True(t, result.Success)
		assert.True(t, result.Envelope.IsPublished())
	}

	// The envelopes passed in still hold version 1 and are now stale.
	_, err = cma.NewBatchExecutor[cma.EntryFields](4).ArchiveAll(ctx, posts[:2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")

	iterator := cma.NewPaginationIterator[cma.EntryFields](ctx, space.Entries().List, nil, 5)

	all, err := iterator.All()
	require.NoError(t, err)
	assert.Len(t, all, 8)

	published := 0

	for _, entry := range all {
		if entry.IsPublished() {
			published++
		}
	}

	assert.Equal(t, 7, published)
}

func TestWorkflow_AssetProcessing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := NewFakeServer(t)
	space := setupSpace(t, fake.NewClient(t, nil))

	asset, err := space.Assets().Create(ctx, &cma.AssetFields{
		Fields: cma.AssetContent{
			Title: map[string]string{"en-US": "Logo"},
			File: map[string]*cma.AssetFile{
				"en-US": {ContentType: "image/png", FileName: "logo.png", Upload: "https://upload.example.com/logo.png"},
				"de-DE": {ContentType: "image/png", FileName: "logo-de.png", Upload: "https://upload.example.com/logo-de.png"},
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, asset.Attributes.Processed("en-US"))

	processed, err := space.Assets().ProcessForLocale(ctx, asset, "en-US")
	require.NoError(t, err)
	assert.True(t, processed.Attributes.Processed("en-US"))
	assert.False(t, processed.Attributes.Processed("de-DE"))
	assert.False(t, asset.Attributes.Processed("en-US"))

	_, err = space.Assets().ProcessForLocale(ctx, processed, "fr-FR")
	require.ErrorIs(t, err, cma.ErrNoFileForLocale)

	all, err := space.Assets().ProcessForAllLocales(ctx, processed)
	require.NoError(t, err)
	assert.True(t, all.Attributes.Processed("de-DE"))
	assert.True(t, all.Attributes.Processed("en-US"))

	all.Attributes.Fields.Title["en-US"] = "Company logo"

	renamed, err := all.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, all.Version()+1, renamed.Version())

	_, err = space.Assets().ProcessForLocale(ctx, asset, "en-US")
	require.Error(t, err)
	assert.True(t, cma.IsConflict(err), "stale asset must conflict: %v", err)
}

func TestWorkflow_LocalesAndWebhooks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := NewFakeServer(t)
	space := setupSpace(t, fake.NewClient(t, nil))

	locale, err := space.Locales().Create(ctx, &cma.LocaleFields{
		Name:                 "German",
		Code:                 "de-DE",
		FallbackCode:         "en-US",
		ContentManagementAPI: true,
		ContentDeliveryAPI:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "en-US", locale.Attributes.FallbackCode)

	locale.Attributes.Name = "Deutsch"

	updated, err := locale.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Deutsch", updated.Attributes.Name)
	assert.Empty(t, updated.Attributes.FallbackCode)

	webhook, err := space.Webhooks().Create(ctx, &cma.WebhookFields{
		Name:   "Notify",
		URL:    "https://hooks.example.com",
		Topics: []string{"Entry.publish"},
	})
	require.NoError(t, err)

	_, err = webhook.Publish(ctx)
	require.ErrorIs(t, err, cma.ErrUnsupportedOperation)

	require.NoError(t, webhook.Delete(ctx))

	spaces, err := fake.NewClient(t, nil).GetSpaces(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, spaces.Total)
}
