// Package cmaclient provides the main entry point for creating Content Management API clients
package cmaclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/cma/internal/client"
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// EnvPrefix prefixes every environment variable read by LoadConfig, e.g.
// CMA_ACCESS_TOKEN.
const EnvPrefix = "CMA"

// Configuration keys understood by LoadConfig.
const (
	KeyHost                   = "host"
	KeyInsecure               = "insecure"
	KeyBasePath               = "base_path"
	KeyAccessToken            = "access_token"
	KeyConcurrency            = "concurrency"
	KeyRequestDelay           = "request_delay"
	KeyMaxRetries             = "max_retries"
	KeyRetryOnTooManyRequests = "retry_on_too_many_requests"
	KeyRetryWaitMin           = "retry_wait_min"
	KeyRetryWaitMax           = "retry_wait_max"
	KeyHTTPTimeout            = "http_timeout"
	KeyDebug                  = "debug"
	KeyUserAgent              = "user_agent"
	KeyHeaders                = "headers"
)

// New creates a new Content Management API client. The config is validated
// before anything else happens and copied, so later changes to it have no
// effect on the returned client.
func New(ctx context.Context, config *cma.Config) (cma.Client, error) {
	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a new client for the default host with an access token.
func NewWithToken(ctx context.Context, token string) (cma.Client, error) {
	return New(ctx, &cma.Config{
		AccessToken: token,
	})
}

// NewFromFile loads configuration with LoadConfig and creates a client.
func NewFromFile(ctx context.Context, path string) (cma.Client, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return New(ctx, config)
}

// LoadConfig reads configuration from the YAML, JSON or TOML file at path,
// if path is non-empty, and from CMA_* environment variables, which win over
// the file. Unset keys take the defaults of cma.DefaultConfig.
func LoadConfig(path string) (*cma.Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	return &cma.Config{
		Host:                   v.GetString(KeyHost),
		Insecure:               v.GetBool(KeyInsecure),
		BasePath:               v.GetString(KeyBasePath),
		AccessToken:            v.GetString(KeyAccessToken),
		Concurrency:            v.GetInt(KeyConcurrency),
		RequestDelay:           cma.Ptr(v.GetDuration(KeyRequestDelay)),
		MaxRetries:             cma.Ptr(v.GetInt(KeyMaxRetries)),
		RetryOnTooManyRequests: cma.Ptr(v.GetBool(KeyRetryOnTooManyRequests)),
		RetryWaitMin:           v.GetDuration(KeyRetryWaitMin),
		RetryWaitMax:           v.GetDuration(KeyRetryWaitMax),
		HTTPTimeout:            v.GetDuration(KeyHTTPTimeout),
		Debug:                  v.GetBool(KeyDebug),
		UserAgent:              v.GetString(KeyUserAgent),
		Headers:                v.GetStringMapString(KeyHeaders),
	}, nil
}

func setDefaults(v *viper.Viper) {
	defaults := cma.DefaultConfig()

	v.SetDefault(KeyHost, defaults.Host)
	v.SetDefault(KeyInsecure, false)
	v.SetDefault(KeyBasePath, constants.DefaultBasePath)
	v.SetDefault(KeyAccessToken, "")
	v.SetDefault(KeyConcurrency, defaults.Concurrency)
	v.SetDefault(KeyRequestDelay, *defaults.RequestDelay)
	v.SetDefault(KeyMaxRetries, *defaults.MaxRetries)
	v.SetDefault(KeyRetryOnTooManyRequests, true)
	v.SetDefault(KeyRetryWaitMin, defaults.RetryWaitMin)
	v.SetDefault(KeyRetryWaitMax, defaults.RetryWaitMax)
	v.SetDefault(KeyHTTPTimeout, defaults.HTTPTimeout)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyUserAgent, "")
}
