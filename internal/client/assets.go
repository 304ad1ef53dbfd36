package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fivetwenty-io/cma/internal/constants"
	internalhttp "github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// errNotProcessed marks a poll that found the file still unprocessed.
var errNotProcessed = errors.New("asset file not processed yet")

// AssetsClient implements cma.AssetsClient.
type AssetsClient struct {
	resourceClient[cma.AssetFields]

	checkWait    time.Duration
	checkRetries int
}

// NewAssetsClient creates a new assets client.
func NewAssetsClient(httpClient *internalhttp.Client) *AssetsClient {
	binding := cma.NewBinding[cma.AssetFields](httpClient, constants.PathAssets)

	return &AssetsClient{
		resourceClient: newResourceClient(binding, "asset"),
		checkWait:      constants.DefaultProcessingCheckWait,
		checkRetries:   constants.DefaultProcessingCheckRetries,
	}
}

// SetProcessingPolicy sets the first wait between processing checks and the
// number of checks made before giving up.
func (c *AssetsClient) SetProcessingPolicy(checkWait time.Duration, checkRetries int) {
	if checkWait > 0 {
		c.checkWait = checkWait
	}

	if checkRetries > 0 {
		c.checkRetries = checkRetries
	}
}

// ProcessForLocale implements cma.AssetsClient.ProcessForLocale.
func (c *AssetsClient) ProcessForLocale(ctx context.Context, asset *cma.Asset, locale string) (*cma.Asset, error) {
	if _, ok := asset.Attributes.Fields.File[locale]; !ok {
		return nil, fmt.Errorf("%w: %s", cma.ErrNoFileForLocale, locale)
	}

	err := c.startProcessing(ctx, asset, locale)
	if err != nil {
		return nil, err
	}

	return c.waitProcessed(ctx, asset.ID(), []string{locale})
}

// ProcessForAllLocales implements cma.AssetsClient.ProcessForAllLocales.
func (c *AssetsClient) ProcessForAllLocales(ctx context.Context, asset *cma.Asset) (*cma.Asset, error) {
	locales := asset.Attributes.Locales()
	sort.Strings(locales)

	for _, locale := range locales {
		err := c.startProcessing(ctx, asset, locale)
		if err != nil {
			return nil, err
		}
	}

	return c.waitProcessed(ctx, asset.ID(), locales)
}

func (c *AssetsClient) startProcessing(ctx context.Context, asset *cma.Asset, locale string) error {
	path := constants.PathAssets + "/" + url.PathEscape(asset.ID()) + "/files/" + url.PathEscape(locale) + "/process"

	_, err := c.binding.Transport().Do(ctx, &cma.Request{
		Method: http.MethodPut,
		Path:   path,
		Headers: map[string]string{
			constants.HeaderVersion: strconv.Itoa(asset.Version()),
		},
	})
	if err != nil {
		return fmt.Errorf("processing asset %s for locale %s: %w", asset.ID(), locale, err)
	}

	return nil
}

// waitProcessed polls the asset until every locale has a processed file.
func (c *AssetsClient) waitProcessed(ctx context.Context, id string, locales []string) (*cma.Asset, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.checkWait
	policy.MaxElapsedTime = 0

	retries := uint64(0)
	if c.checkRetries > 1 {
		retries = uint64(c.checkRetries - 1)
	}

	var processed *cma.Asset

	operation := func() error {
		asset, err := c.binding.Get(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}

		for _, locale := range locales {
			if !asset.Attributes.Processed(locale) {
				return errNotProcessed
			}
		}

		processed = asset

		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx))
	if errors.Is(err, errNotProcessed) {
		return nil, fmt.Errorf("%w: asset %s", cma.ErrAssetProcessingTimeout, id)
	}

	if err != nil {
		return nil, fmt.Errorf("checking asset %s: %w", id, err)
	}

	return processed, nil
}
