// Package httputil provides HTTP utilities for the tree data service client.
//
// # Overview
//
// This package provides retry infrastructure used by the remote node
// source. Transient failures are wrapped in [RetryableError] so [Retry]
// knows the request is worth attempting again:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// It uses exponential backoff to avoid thundering herd:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchRegion()
//	})
//
// # Configuration
//
// [RetryWithBackoff] uses defaults suitable for interactive fetches: 3
// attempts with a 1 second base delay, doubling each retry. Use [Retry]
// directly to pick different settings.
package httputil
