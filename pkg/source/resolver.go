package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"polygraph/pkg/fetch"
	"polygraph/pkg/logger"
)

const (
	wikidataAPIEndpoint  = "https://www.wikidata.org/w/api.php"
	wikipediaAPIEndpoint = "https://en.wikipedia.org/w/api.php"
)

var entityIDPattern = regexp.MustCompile(`^Q\d+$`)

// Resolver maps free-form seeds to Wikidata entity ids. Canonical ids pass
// through untouched; titles resolve via the sitelink lookup and fall back to
// entity search; category seeds expand to the ids of every member article.
//
// A Resolver should be created using NewResolver.
type Resolver struct {
	client       *fetch.Client
	wikidataAPI  string
	wikipediaAPI string
}

// NewResolverParams defines the configuration for creating a Resolver. The
// API endpoints default to wikidata.org and en.wikipedia.org.
type NewResolverParams struct {
	Client       *fetch.Client
	WikidataAPI  string
	WikipediaAPI string
}

// NewResolver creates a Resolver.
func NewResolver(params NewResolverParams) *Resolver {
	wikidataAPI := params.WikidataAPI
	if wikidataAPI == "" {
		wikidataAPI = wikidataAPIEndpoint
	}
	wikipediaAPI := params.WikipediaAPI
	if wikipediaAPI == "" {
		wikipediaAPI = wikipediaAPIEndpoint
	}
	return &Resolver{
		client:       params.Client,
		wikidataAPI:  wikidataAPI,
		wikipediaAPI: wikipediaAPI,
	}
}

type sitelinkResponse struct {
	Entities map[string]struct {
		ID      string `json:"id"`
		Missing string `json:"missing"`
	} `json:"entities"`
}

type searchResponse struct {
	Search []struct {
		ID string `json:"id"`
	} `json:"search"`
}

type categoryResponse struct {
	Continue struct {
		CMContinue string `json:"cmcontinue"`
	} `json:"continue"`
	Query struct {
		CategoryMembers []struct {
			Title string `json:"title"`
			NS    int    `json:"ns"`
		} `json:"categorymembers"`
	} `json:"query"`
}

// Resolve maps a single seed to an entity id. Ids of the form Q<number> are
// returned as-is. Titles are resolved through the enwiki sitelink; when no
// article of that exact title exists, entity search picks the best match.
func (r *Resolver) Resolve(ctx context.Context, seed string) (string, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return "", &ResolutionError{Seed: seed, Reason: "empty seed"}
	}
	if entityIDPattern.MatchString(seed) {
		return seed, nil
	}

	id, err := r.resolveSitelink(ctx, seed)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	logger.Debug("[Resolver] No sitelink match, falling back to search", "seed", seed)
	return r.resolveSearch(ctx, seed)
}

func (r *Resolver) resolveSitelink(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action": {"wbgetentities"},
		"sites":  {"enwiki"},
		"titles": {title},
		"props":  {"info"},
		"format": {"json"},
	}

	var response sitelinkResponse
	if err := r.client.GetJSON(ctx, r.wikidataAPI, params, nil, &response); err != nil {
		return "", fmt.Errorf("sitelink lookup failed for %q: %w", title, err)
	}

	for _, entity := range response.Entities {
		if entity.Missing == "" && entityIDPattern.MatchString(entity.ID) {
			return entity.ID, nil
		}
	}
	return "", nil
}

func (r *Resolver) resolveSearch(ctx context.Context, seed string) (string, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {seed},
		"language": {"en"},
		"type":     {"item"},
		"limit":    {"1"},
		"format":   {"json"},
	}

	var response searchResponse
	if err := r.client.GetJSON(ctx, r.wikidataAPI, params, nil, &response); err != nil {
		return "", fmt.Errorf("entity search failed for %q: %w", seed, err)
	}
	if len(response.Search) == 0 {
		return "", &ResolutionError{Seed: seed, Reason: "no matching entity"}
	}
	return response.Search[0].ID, nil
}

// ResolveCategory expands an enwiki category into the entity ids of its
// member articles, following continuation tokens until the listing is
// exhausted. Subcategories and non-article members are skipped; members
// whose title fails to resolve produce a debug log, not an error.
func (r *Resolver) ResolveCategory(ctx context.Context, category string) ([]string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, &ResolutionError{Seed: category, Reason: "empty category"}
	}
	if !strings.HasPrefix(category, "Category:") {
		category = "Category:" + category
	}

	var ids []string
	continueToken := ""
	for {
		params := url.Values{
			"action":  {"query"},
			"list":    {"categorymembers"},
			"cmtitle": {category},
			"cmlimit": {"500"},
			"format":  {"json"},
		}
		if continueToken != "" {
			params.Set("cmcontinue", continueToken)
		}

		var response categoryResponse
		if err := r.client.GetJSON(ctx, r.wikipediaAPI, params, nil, &response); err != nil {
			return nil, fmt.Errorf("category listing failed for %q: %w", category, err)
		}

		for _, member := range response.Query.CategoryMembers {
			if member.NS != 0 {
				continue
			}
			id, err := r.Resolve(ctx, member.Title)
			if err != nil {
				logger.Debug("[Resolver] Skipping unresolvable category member",
					"title", member.Title, "error", err)
				continue
			}
			ids = append(ids, id)
		}

		if response.Continue.CMContinue == "" {
			break
		}
		continueToken = response.Continue.CMContinue
	}

	if len(ids) == 0 {
		return nil, &ResolutionError{Seed: category, Reason: "category has no resolvable article members"}
	}
	return ids, nil
}
