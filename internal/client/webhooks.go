package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/cma/internal/constants"
	internalhttp "github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// WebhooksClient implements cma.WebhooksClient.
type WebhooksClient struct {
	resourceClient[cma.WebhookFields]
}

// NewWebhooksClient creates a new webhooks client.
func NewWebhooksClient(httpClient *internalhttp.Client) *WebhooksClient {
	binding := cma.NewBinding[cma.WebhookFields](httpClient, constants.PathWebhookDefinitions,
		cma.WithCapabilities[cma.WebhookFields](cma.CapEditable),
	)

	return &WebhooksClient{resourceClient: newResourceClient(binding, "webhook")}
}

// Calls implements cma.WebhooksClient.Calls.
func (c *WebhooksClient) Calls(ctx context.Context, webhook *cma.Webhook) (*cma.WebhookCallCollection, error) {
	var calls cma.WebhookCallCollection

	err := c.getJSON(ctx, webhookPath(webhook, "calls"), &calls)
	if err != nil {
		return nil, fmt.Errorf("listing webhook calls: %w", err)
	}

	return &calls, nil
}

// Call implements cma.WebhooksClient.Call.
func (c *WebhooksClient) Call(ctx context.Context, webhook *cma.Webhook, callID string) (*cma.WebhookCallDetails, error) {
	if callID == "" {
		return nil, cma.ErrEmptyID
	}

	var call cma.WebhookCallDetails

	err := c.getJSON(ctx, webhookPath(webhook, "calls", callID), &call)
	if err != nil {
		return nil, fmt.Errorf("getting webhook call: %w", err)
	}

	return &call, nil
}

// Health implements cma.WebhooksClient.Health.
func (c *WebhooksClient) Health(ctx context.Context, webhook *cma.Webhook) (*cma.WebhookHealth, error) {
	var health cma.WebhookHealth

	err := c.getJSON(ctx, webhookPath(webhook, "health"), &health)
	if err != nil {
		return nil, fmt.Errorf("getting webhook health: %w", err)
	}

	return &health, nil
}

func (c *WebhooksClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.binding.Transport().Do(ctx, &cma.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}

	err = json.Unmarshal(resp.Body, out)
	if err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	return nil
}

// webhookPath builds a path under webhooks/{id}. Call logs and health live
// outside the webhook_definitions collection.
func webhookPath(webhook *cma.Webhook, suffix ...string) string {
	path := constants.PathWebhooks + "/" + url.PathEscape(webhook.ID())
	for _, part := range suffix {
		path += "/" + url.PathEscape(part)
	}

	return path
}
