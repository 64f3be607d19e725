package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"polygraph/pkg/fetch"
	"polygraph/pkg/graph"
	"polygraph/pkg/logger"
)

// Infobox parameter names mapped to the relation they imply. Only kinship
// parameters are extracted; the fallback exists to patch family gaps left by
// the primary source.
var infoboxRelations = map[string]string{
	"father":    "father",
	"mother":    "mother",
	"spouse":    "spouse",
	"partner":   "partner",
	"children":  "child",
	"relations": "relative",
	"relatives": "relative",
}

// Wikipedia extracts kinship relations from article infobox wikitext. It is
// the low-confidence fallback consulted when the primary source returns no
// edges; extracted values are display strings, not entity ids. Implements
// graph.FallbackSource.
//
// A Wikipedia source should be created using NewWikipedia.
type Wikipedia struct {
	client   *fetch.Client
	endpoint string
}

// NewWikipediaParams defines the configuration for creating a Wikipedia
// fallback source. Endpoint defaults to en.wikipedia.org.
type NewWikipediaParams struct {
	Client   *fetch.Client
	Endpoint string
}

// NewWikipedia creates a Wikipedia fallback source.
func NewWikipedia(params NewWikipediaParams) *Wikipedia {
	endpoint := params.Endpoint
	if endpoint == "" {
		endpoint = wikipediaAPIEndpoint
	}
	return &Wikipedia{client: params.Client, endpoint: endpoint}
}

type revisionsResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"*"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// ExtractEdges fetches the article for displayName and parses kinship
// parameters out of its infobox. The returned map is keyed by relation name;
// list-valued parameters keep only the first entry. A missing article or an
// article without an infobox yields an empty map, not an error.
func (w *Wikipedia) ExtractEdges(ctx context.Context, displayName string) (map[string]graph.FallbackEdge, error) {
	if strings.TrimSpace(displayName) == "" {
		return map[string]graph.FallbackEdge{}, nil
	}

	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"rvprop":  {"content"},
		"rvslots": {"main"},
		"titles":  {displayName},
		"format":  {"json"},
	}

	var response revisionsResponse
	if err := w.client.GetJSON(ctx, w.endpoint, params, nil, &response); err != nil {
		return nil, fmt.Errorf("article fetch failed for %q: %w", displayName, err)
	}

	var wikitext string
	for _, page := range response.Query.Pages {
		if len(page.Revisions) > 0 {
			wikitext = page.Revisions[0].Slots.Main.Content
			break
		}
	}
	if wikitext == "" {
		logger.Debug("[Wikipedia] No article content", "title", displayName)
		return map[string]graph.FallbackEdge{}, nil
	}

	retrievedAt := time.Now().UTC().Format(time.RFC3339)
	evidenceURL := "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(displayName, " ", "_"))

	edges := make(map[string]graph.FallbackEdge)
	for param, value := range ParseInfobox(wikitext) {
		relation, ok := infoboxRelations[param]
		if !ok {
			continue
		}
		cleaned := CleanInfoboxValue(value)
		if cleaned == "" {
			continue
		}
		if _, exists := edges[relation]; exists {
			continue
		}
		edges[relation] = graph.FallbackEdge{
			Value:        cleaned,
			SourceSystem: "wikipedia_infobox",
			EvidenceURL:  evidenceURL,
			RetrievedAt:  retrievedAt,
		}
	}
	return edges, nil
}

var infoboxStart = regexp.MustCompile(`(?i)\{\{\s*Infobox`)

// ParseInfobox locates the first infobox template in wikitext and returns
// its top-level parameters as a name to raw-value map. Parameter names are
// lowercased; nested templates inside values are kept verbatim.
func ParseInfobox(wikitext string) map[string]string {
	loc := infoboxStart.FindStringIndex(wikitext)
	if loc == nil {
		return map[string]string{}
	}

	// Walk brace depth from the template opening to find its matching end.
	depth := 0
	start := loc[0]
	end := -1
	for i := start; i < len(wikitext)-1; i++ {
		switch {
		case wikitext[i] == '{' && wikitext[i+1] == '{':
			depth++
			i++
		case wikitext[i] == '}' && wikitext[i+1] == '}':
			depth--
			i++
			if depth == 0 {
				end = i + 1
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return map[string]string{}
	}

	body := wikitext[start+2 : end-2]
	params := make(map[string]string)

	// Split on top-level pipes only; pipes inside nested templates or
	// wiki links belong to the value.
	braceDepth := 0
	bracketDepth := 0
	fieldStart := 0
	var fields []string
	for i := 0; i < len(body); i++ {
		switch {
		case i < len(body)-1 && body[i] == '{' && body[i+1] == '{':
			braceDepth++
			i++
		case i < len(body)-1 && body[i] == '}' && body[i+1] == '}':
			braceDepth--
			i++
		case i < len(body)-1 && body[i] == '[' && body[i+1] == '[':
			bracketDepth++
			i++
		case i < len(body)-1 && body[i] == ']' && body[i+1] == ']':
			bracketDepth--
			i++
		case body[i] == '|' && braceDepth == 0 && bracketDepth == 0:
			fields = append(fields, body[fieldStart:i])
			fieldStart = i + 1
		}
	}
	fields = append(fields, body[fieldStart:])

	for _, field := range fields[1:] {
		eq := strings.Index(field, "=")
		if eq < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(field[:eq]))
		value := strings.TrimSpace(field[eq+1:])
		if name == "" || value == "" {
			continue
		}
		params[name] = value
	}
	return params
}

var (
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]*)?\]\]`)
	templatePattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	refPattern      = regexp.MustCompile(`(?s)<ref[^>]*>.*?</ref>|<ref[^>]*/>`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// CleanInfoboxValue strips wikitext markup from an infobox value and returns
// the first name-like entry. Plainlist and marriage templates collapse to
// their first argument; references and HTML are discarded.
func CleanInfoboxValue(raw string) string {
	value := refPattern.ReplaceAllString(raw, "")

	// {{marriage|Name|1990}} and friends carry the name as the first
	// positional argument.
	value = templateArgOrDrop(value)

	if match := wikiLinkPattern.FindStringSubmatch(value); match != nil {
		return strings.TrimSpace(match[1])
	}

	value = templatePattern.ReplaceAllString(value, "")
	value = htmlTagPattern.ReplaceAllString(value, " ")

	// Multi-valued fields separated by line breaks or bullets keep the
	// first entry.
	for _, sep := range []string{"\n", "*", ";", ","} {
		if idx := strings.Index(value, sep); idx >= 0 {
			value = value[:idx]
		}
	}
	return strings.TrimSpace(value)
}

var namedTemplatePattern = regexp.MustCompile(`(?i)\{\{\s*(?:marriage|ubl|unbulleted list|plainlist|hlist)\s*\|([^{}]*)\}\}`)

func templateArgOrDrop(value string) string {
	match := namedTemplatePattern.FindStringSubmatch(value)
	if match == nil {
		return value
	}
	args := strings.Split(match[1], "|")
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" || strings.Contains(arg, "=") {
			continue
		}
		return arg
	}
	return ""
}
