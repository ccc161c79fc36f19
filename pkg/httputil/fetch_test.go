package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwerkmann/stackflow/pkg/errors"
)

func TestFetcher_Plain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`digraph {}`))
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != `digraph {}` {
		t.Errorf("body = %q", body)
	}
}

func TestFetcher_CacheHit(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	cache, _ := NewCache(t.TempDir(), time.Hour)
	f := NewFetcher(cache)

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (fresh entries served from cache)", got)
	}
}

func TestFetcher_Revalidation(t *testing.T) {
	var conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	// TTL short enough that the second fetch sees an expired entry.
	cache, _ := NewCache(t.TempDir(), time.Millisecond)
	f := NewFetcher(cache)

	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("revalidated body = %q, want payload", body)
	}
	if conditional.Load() != 1 {
		t.Error("expected a conditional request after expiry")
	}
}

func TestFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want code %s", err, errors.ErrCodeNotFound)
	}
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	f.backoff = time.Millisecond

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "ok" || requests.Load() != 3 {
		t.Errorf("body=%q after %d requests, want ok after 3", body, requests.Load())
	}
}

func TestFetcher_RejectsNonHTTP(t *testing.T) {
	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), "ftp://example.com/graph.dot")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}
}
