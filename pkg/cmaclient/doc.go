// Package cmaclient provides the primary entry point for constructing a
// Content Management API client that implements the cma.Client interface.
//
// It layers configuration, the admission-controlled HTTP transport and the
// resource bindings on top of the interfaces and types defined in the cma
// package. Most applications import cmaclient to build a client, then use the
// returned cma.Client to reach spaces and their resource clients.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/cma/pkg/cma"
//	  "github.com/fivetwenty-io/cma/pkg/cmaclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := cmaclient.New(ctx, &cma.Config{
//	    AccessToken: "CFPAT-...",
//	    Concurrency: 4,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  space := cli.SpaceByID("my-space")
//	  entries, err := space.Entries().List(ctx, cma.NewQueryParams().WithLimit(10))
//	  if err != nil { log.Fatal(err) }
//	  _ = entries
//	}
//
// # Configuration files
//
// LoadConfig reads an optional YAML (or JSON/TOML) file and CMA_* environment
// variables. Environment variables win over the file:
//
//	host: api.contentful.com
//	access_token: CFPAT-...
//	concurrency: 6
//	request_delay: 1s
//	max_retries: 5
//	retry_on_too_many_requests: true
//	debug: false
//	user_agent: my-tool/1.0
//	headers:
//	  X-Team: content
//
// # Helpers
//
// NewWithToken and NewFromFile wrap New with the matching configuration.
package cmaclient
