package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func testClient(cache Cache) *Client {
	return NewClient(NewClientParams{
		Cache:             cache,
		RequestsPerSecond: 1000,
		MaxRetries:        3,
		Backoff:           time.Millisecond,
		Timeout:           5 * time.Second,
	})
}

func TestGetRetriesOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := testClient(nil)
	resp, err := client.Get(context.Background(), srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("server called %d times, want 3", calls)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
}

func TestGetFailsFastOnClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := testClient(nil)
	_, err := client.Get(context.Background(), srv.URL, nil, nil)

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if terr.Status != http.StatusNotFound {
		t.Fatalf("TransportError.Status = %d, want 404", terr.Status)
	}
	if calls != 1 {
		t.Fatalf("server called %d times, want 1 (404 is not retryable)", calls)
	}
}

func TestGetUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	client := testClient(NewMemoryCache())

	first, err := client.Get(context.Background(), srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("first Get returned error: %v", err)
	}
	if first.FromCache {
		t.Fatal("first response should not come from cache")
	}

	second, err := client.Get(context.Background(), srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("second Get returned error: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second response should come from cache")
	}
	if string(second.Body) != "payload" {
		t.Fatalf("cached body = %q, want %q", second.Body, "payload")
	}
	if calls != 1 {
		t.Fatalf("server called %d times, want 1", calls)
	}
}

func TestCacheKeyIgnoresParamOrder(t *testing.T) {
	a := url.Values{}
	a.Set("query", "x")
	a.Set("format", "json")

	b := url.Values{}
	b.Set("format", "json")
	b.Set("query", "x")

	if CacheKey("GET", "https://example.org", a) != CacheKey("get", "https://example.org", b) {
		t.Fatal("cache keys differ for equivalent requests")
	}
}

func TestCacheKeyDistinguishesRequests(t *testing.T) {
	a := url.Values{}
	a.Set("query", "x")
	b := url.Values{}
	b.Set("query", "y")

	if CacheKey("GET", "https://example.org", a) == CacheKey("GET", "https://example.org", b) {
		t.Fatal("cache keys collide for different requests")
	}
}

func TestGetJSONDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Q42"}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	client := testClient(nil)
	if err := client.GetJSON(context.Background(), srv.URL, nil, nil, &out); err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if out.Name != "Q42" {
		t.Fatalf("decoded name = %q, want Q42", out.Name)
	}
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	cache, err := NewSQLiteCache(t.TempDir() + "/http_cache.sqlite")
	if err != nil {
		t.Fatalf("NewSQLiteCache returned error: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.Get("missing"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	if err := cache.Set("k", "v1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := cache.Set("k", "v2"); err != nil {
		t.Fatalf("overwrite Set returned error: %v", err)
	}
	got, ok := cache.Get("k")
	if !ok || got != "v2" {
		t.Fatalf("Get = %q, %v; want %q, true", got, ok, "v2")
	}
}
