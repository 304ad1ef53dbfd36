package client

import (
	"encoding/json"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// LocalesClient implements cma.LocalesClient.
type LocalesClient struct {
	resourceClient[cma.LocaleFields]
}

// NewLocalesClient creates a new locales client. Locales can be updated and
// deleted but have no publish or archive state.
func NewLocalesClient(httpClient *http.Client) *LocalesClient {
	binding := cma.NewBinding[cma.LocaleFields](httpClient, constants.PathLocales,
		cma.WithCapabilities[cma.LocaleFields](cma.CapEditable),
		cma.WithSanitizer[cma.LocaleFields](sanitizeLocale),
		cma.WithUpdateFilter[cma.LocaleFields](filterLocaleUpdate),
	)

	return &LocalesClient{resourceClient: newResourceClient(binding, "locale")}
}

// sanitizeLocale drops the server-internal code.
func sanitizeLocale(fields map[string]json.RawMessage) {
	delete(fields, "internal_code")
}

// filterLocaleUpdate drops fields the server rejects on update.
func filterLocaleUpdate(fields map[string]json.RawMessage) {
	delete(fields, "default")
	delete(fields, "fallback_code")
	delete(fields, "fallbackCode")
}
