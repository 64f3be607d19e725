package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"polygraph/pkg/fetch"
)

const sampleWikitext = `
Some lead text.
{{Infobox officeholder
| name = Jane Example
| office = Minister of Examples
| father = [[John Example|John]]
| mother = [[Mary Example]]
| spouse = {{marriage|Alex Example|1990}}
| children = [[Kid One]]<ref>cite</ref>
| party = {{nowrap|[[Example Party]]}}
}}
More text after the infobox.
`

func TestParseInfobox(t *testing.T) {
	params := ParseInfobox(sampleWikitext)

	if got := params["name"]; got != "Jane Example" {
		t.Fatalf("expected plain name, got %q", got)
	}
	if got := params["father"]; got != "[[John Example|John]]" {
		t.Fatalf("expected raw link value, got %q", got)
	}
	if _, ok := params["missing"]; ok {
		t.Fatalf("did not expect a missing parameter")
	}
}

func TestParseInfoboxNoInfobox(t *testing.T) {
	params := ParseInfobox("Just prose, no template.")
	if len(params) != 0 {
		t.Fatalf("expected an empty map, got %v", params)
	}
}

func TestCleanInfoboxValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"piped link", "[[John Example|John]]", "John Example"},
		{"plain link", "[[Mary Example]]", "Mary Example"},
		{"marriage template", "{{marriage|Alex Example|1990}}", "Alex Example"},
		{"reference stripped", "[[Kid One]]<ref>cite</ref>", "Kid One"},
		{"plain text", "Unknown Person", "Unknown Person"},
		{"multi-line keeps first", "First Person\nSecond Person", "First Person"},
		{"empty after markup", "<br/>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanInfoboxValue(tt.raw); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractEdges(t *testing.T) {
	page := map[string]any{
		"query": map[string]any{
			"pages": map[string]any{
				"123": map[string]any{
					"title": "Jane Example",
					"revisions": []any{
						map[string]any{
							"slots": map[string]any{
								"main": map[string]any{"*": sampleWikitext},
							},
						},
					},
				},
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.NewClientParams{Cache: fetch.NewMemoryCache()})
	wikipedia := NewWikipedia(NewWikipediaParams{Client: client, Endpoint: server.URL})

	edges, err := wikipedia.ExtractEdges(context.Background(), "Jane Example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"father": "John Example",
		"mother": "Mary Example",
		"spouse": "Alex Example",
		"child":  "Kid One",
	}
	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %v", len(want), edges)
	}
	for relation, value := range want {
		edge, ok := edges[relation]
		if !ok {
			t.Fatalf("missing relation %q in %v", relation, edges)
		}
		if edge.Value != value {
			t.Fatalf("expected %q for %q, got %q", value, relation, edge.Value)
		}
		if edge.SourceSystem != "wikipedia_infobox" {
			t.Fatalf("expected infobox provenance, got %q", edge.SourceSystem)
		}
	}
}

func TestExtractEdgesMissingArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"query": map[string]any{"pages": map[string]any{"-1": map[string]any{"title": "Nope"}}},
		})
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.NewClientParams{Cache: fetch.NewMemoryCache()})
	wikipedia := NewWikipedia(NewWikipediaParams{Client: client, Endpoint: server.URL})

	edges, err := wikipedia.ExtractEdges(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("expected a missing article to be empty, not an error: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("expected no edges, got %v", edges)
	}
}
