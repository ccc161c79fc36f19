package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/observability"
)

const (
	fetchTimeout  = 30 * time.Second
	maxBodyBytes  = 32 << 20 // graph dumps for large stacks stay well under this
	fetchAttempts = 3
)

// cachedResponse is the persisted form of a fetched document, including the
// validators needed for conditional revalidation.
type cachedResponse struct {
	Body         []byte `json:"body"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// Fetcher downloads remote input documents with retry and conditional-GET
// caching. A fresh cache entry is served without any request; an expired one
// is revalidated with If-None-Match / If-Modified-Since, so unchanged inputs
// cost a 304 instead of a transfer.
type Fetcher struct {
	http    *http.Client
	cache   *Cache
	backoff time.Duration
}

// NewFetcher creates a Fetcher backed by cache. A nil cache disables
// caching; every Fetch then hits the network.
func NewFetcher(cache *Cache) *Fetcher {
	c := cache
	if c != nil {
		c = c.Namespace("remote:")
	}
	return &Fetcher{
		http:    &http.Client{Timeout: fetchTimeout},
		cache:   c,
		backoff: time.Second,
	}
}

// Fetch returns the document at rawURL. Transient failures (network errors,
// 5xx responses) are retried with exponential backoff; 404 and 429 map to
// their error codes directly.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.New(errors.ErrCodeInvalidInput, "not an http(s) url: %s", rawURL)
	}

	var cached cachedResponse
	if f.cache != nil {
		ok, cerr := f.cache.Get(rawURL, &cached)
		if ok {
			return cached.Body, nil
		}
		if cerr == ErrExpired {
			// Keep the stale entry for its validators.
			if ok, _ = f.cache.GetStale(rawURL, &cached); !ok {
				cached = cachedResponse{}
			}
		}
	}

	var body []byte
	err = Retry(ctx, fetchAttempts, f.backoff, func() error {
		var ferr error
		body, ferr = f.do(ctx, u, &cached)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		_ = f.cache.Set(rawURL, cached)
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, u *url.URL, cached *cachedResponse) ([]byte, error) {
	hooks := observability.HTTP()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	if cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}
	if cached.LastModified != "" {
		req.Header.Set("If-Modified-Since", cached.LastModified)
	}

	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", u.Host)
		}
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", u.Host)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return cached.Body, nil
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s", u.Host)}
		}
		*cached = cachedResponse{
			Body:         body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "%s not found", u)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &errors.RateLimitedError{RetryAfter: retryAfter(resp), Message: "remote input"}
	case resp.StatusCode >= 500:
		return nil, &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", u.Host, resp.StatusCode)}
	default:
		return nil, errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", u.Host, resp.StatusCode)
	}
}

func retryAfter(resp *http.Response) int {
	if s := resp.Header.Get("Retry-After"); s != "" {
		var secs int
		if _, err := fmt.Sscanf(s, "%d", &secs); err == nil && secs > 0 {
			return secs
		}
	}
	return 0
}
