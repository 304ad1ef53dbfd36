package cmaclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
	"github.com/fivetwenty-io/cma/pkg/cmaclient"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func spaceServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))

		if request.URL.Path != "/spaces/sp1" {
			writer.WriteHeader(http.StatusNotFound)

			return
		}

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"sys":  map[string]interface{}{"id": "sp1", "type": "Space", "version": 1},
			"name": "Blog",
		})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		client, err := cmaclient.New(context.Background(), &cma.Config{AccessToken: "test-token"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("rejects invalid config before any request", func(t *testing.T) {
		t.Parallel()

		client, err := cmaclient.New(context.Background(), &cma.Config{Host: "example.com"})
		require.Error(t, err)
		assert.Nil(t, client)
		assert.True(t, cma.IsValidationError(err))
		require.ErrorIs(t, err, cma.ErrAccessTokenRequired)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := cmaclient.New(context.Background(), nil)
		require.ErrorIs(t, err, cma.ErrConfigRequired)
	})

	t.Run("talks to the configured host", func(t *testing.T) {
		t.Parallel()

		server := spaceServer(t)
		serverURL, err := url.Parse(server.URL)
		require.NoError(t, err)

		client, err := cmaclient.New(context.Background(), &cma.Config{
			Host:         serverURL.Host,
			Insecure:     true,
			AccessToken:  "test-token",
			RequestDelay: cma.Ptr(time.Millisecond),
		})
		require.NoError(t, err)

		space, err := client.GetSpace(context.Background(), "sp1")
		require.NoError(t, err)
		assert.Equal(t, "Blog", space.Attributes.Name)
	})
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	client, err := cmaclient.NewWithToken(context.Background(), "test-token")
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = cmaclient.NewWithToken(context.Background(), "")
	require.ErrorIs(t, err, cma.ErrAccessTokenRequired)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults without a file", func(t *testing.T) {
		t.Parallel()

		config, err := cmaclient.LoadConfig("")
		require.NoError(t, err)

		defaults := cma.DefaultConfig()
		assert.Equal(t, defaults.Host, config.Host)
		assert.Equal(t, "/spaces", config.BasePath)
		assert.Equal(t, defaults.Concurrency, config.Concurrency)
		assert.Equal(t, defaults.RequestDelay, config.RequestDelay)
		assert.Equal(t, defaults.MaxRetries, config.MaxRetries)
		assert.True(t, config.RetryEnabled())
	})

	t.Run("reads a yaml file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
host: api.eu.contentful.com
access_token: file-token
concurrency: 3
request_delay: 250ms
max_retries: 2
retry_on_too_many_requests: false
debug: true
user_agent: importer/1.0
headers:
  X-Team: content
`)

		config, err := cmaclient.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "api.eu.contentful.com", config.Host)
		assert.Equal(t, "file-token", config.AccessToken)
		assert.Equal(t, 3, config.Concurrency)
		assert.Equal(t, 250*time.Millisecond, *config.RequestDelay)
		assert.Equal(t, 2, *config.MaxRetries)
		assert.False(t, config.RetryEnabled())
		assert.True(t, config.Debug)
		assert.Equal(t, "importer/1.0", config.UserAgent)
		// viper lower-cases map keys; header names are case-insensitive.
		assert.Equal(t, map[string]string{"x-team": "content"}, config.Headers)
		require.NoError(t, config.Validate())
	})

	t.Run("zero retries and no pacing", func(t *testing.T) {
		t.Parallel()

		config, err := cmaclient.LoadConfig(writeConfig(t, "access_token: t\nmax_retries: 0\nrequest_delay: 0s\n"))
		require.NoError(t, err)

		filled := config.WithDefaults()
		assert.Equal(t, 0, *filled.MaxRetries)
		assert.Equal(t, time.Duration(0), *filled.RequestDelay)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := cmaclient.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	path := writeConfig(t, "access_token: file-token\nconcurrency: 3\n")

	t.Setenv("CMA_ACCESS_TOKEN", "env-token")
	t.Setenv("CMA_MAX_RETRIES", "9")

	config, err := cmaclient.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", config.AccessToken)
	assert.Equal(t, 9, *config.MaxRetries)
	assert.Equal(t, 3, config.Concurrency)
}

func TestNewFromFile(t *testing.T) {
	t.Parallel()

	server := spaceServer(t)
	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	path := writeConfig(t, "host: "+serverURL.Host+"\ninsecure: true\naccess_token: test-token\nrequest_delay: 1ms\n")

	client, err := cmaclient.NewFromFile(context.Background(), path)
	require.NoError(t, err)

	space, err := client.GetSpace(context.Background(), "sp1")
	require.NoError(t, err)
	assert.Equal(t, "sp1", space.ID())

	_, err = cmaclient.NewFromFile(context.Background(), filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
