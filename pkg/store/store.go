// Package store provides node sources: the data-layer access points the
// engine loads graph nodes from.
//
// A NodeSource answers two queries: nodes within a world-space region, and
// the initial set around the root. Implementations cover an in-process
// source for tests and the demo command, an HTTP client for the tree data
// service, and a MongoDB-backed source for server deployments.
//
// Sources also emit lifecycle events (node created, updated, removed) via
// [Subscription], which the loader applies incrementally to its resident
// set.
package store

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/tree"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a node or tree doesn't exist in the source.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// DefaultInitialGenerations is how many generations below the root the
// initial load includes, so the first paint is never empty.
const DefaultInitialGenerations = 3

// NodeSource fetches graph nodes from the data layer.
type NodeSource interface {
	// FetchRegion returns the nodes whose positions fall inside bounds.
	// maxDepth limits generation depth relative to the shallowest match;
	// zero means no limit.
	FetchRegion(ctx context.Context, bounds geom.Rect, maxDepth int) ([]tree.Node, error)

	// FetchInitial returns the root and a fixed number of generations
	// below it, regardless of viewport. An empty rootID selects the
	// source's default root.
	FetchInitial(ctx context.Context, rootID string, generations int) ([]tree.Node, error)
}

// NewHTTPClient creates an HTTP client with a standard timeout for data
// service requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
