// Package httputil fetches remote input documents for the pipeline.
//
// # Overview
//
// Three pieces cooperate when an input path is an http(s) URL:
//
//   - [Fetcher]: conditional-GET download of graph dumps
//   - [Cache]: file-based response caching with TTL
//   - [Retry]: automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores responses under ~/.cache/stackflow/ keyed by URL. While an
// entry is fresh it is served without any network traffic; once expired, the
// stored ETag and Last-Modified validators turn the next request into a
// conditional GET, and a 304 revalidates the entry at the cost of a header
// exchange instead of a transfer. CI pipelines polling the same state URL
// benefit the most from this.
//
// # Retry
//
// Transient failures are wrapped in [RetryableError] and retried with
// exponential backoff:
//
//   - network errors and timeouts
//   - 5xx server responses
//
// A 404 or 429 is not transient and surfaces immediately with its error
// code.
//
// # Configuration
//
// Defaults: 3 attempts, 1 second base backoff, 30 second request timeout.
// The cache can be cleared with `stackflow cache clear` or by deleting the
// cache directory.
package httputil
