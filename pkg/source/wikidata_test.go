package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"polygraph/pkg/graph"
)

func sparqlBinding(variable string, kind string, value string) map[string]any {
	return map[string]any{variable: map[string]any{"type": kind, "value": value}}
}

func mergeBindings(parts ...map[string]any) map[string]any {
	merged := map[string]any{}
	for _, part := range parts {
		for k, v := range part {
			merged[k] = v
		}
	}
	return merged
}

func TestFetchRelations(t *testing.T) {
	var capturedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query().Get("query")
		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"bindings": []any{
					mergeBindings(
						sparqlBinding("s", "uri", "http://www.wikidata.org/entity/Q1"),
						sparqlBinding("p", "uri", "http://www.wikidata.org/prop/direct/P22"),
						sparqlBinding("o", "uri", "http://www.wikidata.org/entity/Q2"),
					),
					// A literal object must be skipped.
					mergeBindings(
						sparqlBinding("s", "uri", "http://www.wikidata.org/entity/Q1"),
						sparqlBinding("p", "uri", "http://www.wikidata.org/prop/direct/P26"),
						sparqlBinding("o", "literal", "1952-03-11"),
					),
				},
			},
		})
	}))
	defer server.Close()

	wikidata := NewWikidata(NewWikidataParams{Client: newTestClient(), Endpoint: server.URL})

	edges, err := wikidata.FetchRelations(context.Background(), []string{"Q1"}, graph.IncludeFlags{Family: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(edges) != 1 {
		t.Fatalf("expected the literal to be skipped, got %d edges", len(edges))
	}
	edge := edges[0]
	if edge.Source != "Q1" || edge.Target != "Q2" || edge.Relation != "father" || edge.PredicateID != "P22" {
		t.Fatalf("unexpected edge %+v", edge)
	}
	if edge.SourceSystem != "wikidata" {
		t.Fatalf("expected wikidata provenance, got %q", edge.SourceSystem)
	}

	if !strings.Contains(capturedQuery, "wd:Q1") {
		t.Fatalf("expected the subject in the query, got %q", capturedQuery)
	}
	if !strings.Contains(capturedQuery, "wdt:P22") || strings.Contains(capturedQuery, "wdt:P39") {
		t.Fatalf("expected only family predicates in the query, got %q", capturedQuery)
	}
}

func TestFetchRelationsNoCategories(t *testing.T) {
	wikidata := NewWikidata(NewWikidataParams{Client: newTestClient()})

	edges, err := wikidata.FetchRelations(context.Background(), []string{"Q1"}, graph.IncludeFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edges != nil {
		t.Fatalf("expected no edges without active categories, got %v", edges)
	}
}

func TestFetchLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"bindings": []any{
					mergeBindings(
						sparqlBinding("s", "uri", "http://www.wikidata.org/entity/Q1"),
						sparqlBinding("sLabel", "literal", "Alice"),
						sparqlBinding("sDescription", "literal", "a person"),
					),
					// No label: the service echoes the id back.
					mergeBindings(
						sparqlBinding("s", "uri", "http://www.wikidata.org/entity/Q2"),
						sparqlBinding("sLabel", "literal", "Q2"),
					),
				},
			},
		})
	}))
	defer server.Close()

	wikidata := NewWikidata(NewWikidataParams{Client: newTestClient(), Endpoint: server.URL})

	labels, err := wikidata.FetchLabels(context.Background(), []string{"Q1", "Q2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := labels["Q1"]; got.Label != "Alice" || got.Description != "a person" {
		t.Fatalf("unexpected label for Q1: %+v", got)
	}
	if got := labels["Q2"]; got.Label != "" {
		t.Fatalf("expected echoed ids to be treated as missing labels, got %q", got.Label)
	}
}
