package officials

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"polygraph/pkg/fetch"
)

func newTestFetcher() *fetch.Client {
	return fetch.NewClient(fetch.NewClientParams{
		Cache:             fetch.NewMemoryCache(),
		RequestsPerSecond: 1000,
	})
}

func TestFetchFTM(t *testing.T) {
	roster := `{"id":"a","properties":{"name":["Alice Example"],"position":["President"],"country":["Examplestan"]}}
{"id":"b","properties":{"name":["Bob Example"],"position":["Minister of Defense"],"country":["Examplestan"]}}

{"id":"broken","properties":{name:["Carol Other"],"position":["Prime Minister"],"country":["Otherland"]}}
{"id":"incomplete","properties":{"name":["No Position"]}}
not json at all {{{
`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(roster))
	}))
	defer server.Close()

	client := NewClient(NewClientParams{Fetcher: newTestFetcher(), URL: server.URL})

	officials, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The malformed third line is repaired; the incomplete and garbage
	// lines are skipped.
	if len(officials) != 3 {
		t.Fatalf("expected 3 officials, got %d: %v", len(officials), officials)
	}
	if officials[2].Name != "Carol Other" || officials[2].Country != "Otherland" {
		t.Fatalf("expected the repaired record, got %+v", officials[2])
	}
}

func TestFetchFallsBackToLegacy(t *testing.T) {
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"result": {
				"data": {
					"page": {
						"countries": [
							{
								"name": "Examplestan",
								"leaders": [
									{"name": "Alice Example", "title": "President"},
									{"name": "Bob Example", "title": "Minister of Defense"}
								]
							}
						]
					}
				}
			}
		}`))
	}))
	defer legacy.Close()

	ftm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ftm.Close()

	client := NewClient(NewClientParams{
		Fetcher:   newTestFetcher(),
		URL:       ftm.URL,
		LegacyURL: legacy.URL,
	})

	officials, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(officials) != 2 {
		t.Fatalf("expected 2 officials from the legacy walk, got %v", officials)
	}
	if officials[0].Country != "Examplestan" || officials[0].Position != "President" {
		t.Fatalf("unexpected first official %+v", officials[0])
	}
}
