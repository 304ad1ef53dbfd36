// Package cma provides types, interfaces, and helpers for working with a
// versioned content management API.
//
// # Overview
//
// Every resource the server returns is wrapped in an Envelope: a frozen
// system block (id, version, publish and archive state) plus mutable domain
// Attributes. Envelopes carry the lifecycle operations of the resource type
// they came from (Update, Delete, Publish, Unpublish, Archive, Unarchive).
// Each operation asserts the envelope's version and returns a new envelope;
// the receiver is never changed.
//
// A concrete implementation of the client interfaces is provided by the
// cmaclient package, which wires configuration, transport and authentication.
//
// Getting a client
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
//	  cli, err := cmaclient.New(ctx, &cma.Config{AccessToken: "token"})
//	  if err != nil { log.Fatal(err) }
//
//	  space := cli.SpaceByID("cfexampleapi")
//	  entry, err := space.Entries().Get(ctx, "nyancat")
//	  if err != nil { log.Fatal(err) }
//
//	  entry.Attributes.Fields.Set("name", "en-US", "Nyan Cat")
//	  entry, err = entry.Update(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  entry, err = entry.Publish(ctx)
//	  _ = entry
//	}
//
// # Queries and pagination
//
// Use QueryParams to express list options (skip, limit, order, content_type,
// select, search filters). FetchAll and PaginationIterator walk every page:
//
//	all, err := cma.FetchAll(ctx, space.Entries().List, cma.NewQueryParams().WithContentType("cat"), 100)
//
// # Errors
//
// Failed calls return a *TransportError. Version mismatches come back as
// *ConflictError and exhausted rate limits as *RateLimitError; both embed the
// TransportError. IsConflict, IsRateLimited and IsNotFound branch on them.
// Configuration problems are reported as *ValidationError before any request
// is sent.
//
// # Batches
//
// BatchExecutor applies one lifecycle action to many envelopes and reports
// per-item results in input order.
package cma
