// Package pipeline wires the crawl and enrichment building blocks into the
// runs the worker and the CLI execute.
package pipeline

import (
	"context"
	"strings"

	"polygraph/pkg/enrich"
	"polygraph/pkg/fetch"
	"polygraph/pkg/graph"
	"polygraph/pkg/logger"
	"polygraph/pkg/officials"
	"polygraph/pkg/source"
)

// CrawlOptions configures one crawl run. Seeds may be entity ids or display
// names; Categories are resolved to their member entities. Modes name the
// relation categories to follow and default to all of them.
type CrawlOptions struct {
	Seeds             []string
	Categories        []string
	Modes             []string
	MaxDepth          int
	MaxNodes          int
	MaxEdges          int
	RequestsPerSecond float64
	CachePath         string
	Officials         bool
	UserAgent         string
}

// ParseModes maps relation category names onto include flags. An empty list
// enables every category.
func ParseModes(modes []string) (graph.IncludeFlags, error) {
	if len(modes) == 0 {
		return graph.IncludeFlags{Family: true, Political: true, Security: true, Corporate: true}, nil
	}
	var include graph.IncludeFlags
	for _, mode := range modes {
		switch strings.ToLower(strings.TrimSpace(mode)) {
		case "family":
			include.Family = true
		case "political":
			include.Political = true
		case "security":
			include.Security = true
		case "corporate":
			include.Corporate = true
		case "":
		default:
			return include, &graph.ConfigurationError{Reason: "unknown relation mode " + mode}
		}
	}
	if !include.Any() {
		return include, &graph.ConfigurationError{Reason: "no relation mode selected"}
	}
	return include, nil
}

// Crawl resolves the seeds, optionally reconciles them against the official
// roster, and runs the bounded expansion.
func Crawl(ctx context.Context, opts CrawlOptions) (*graph.Result, error) {
	include, err := ParseModes(opts.Modes)
	if err != nil {
		return nil, err
	}

	var cache fetch.Cache
	if opts.CachePath != "" {
		sqliteCache, err := fetch.NewSQLiteCache(opts.CachePath)
		if err != nil {
			return nil, err
		}
		defer sqliteCache.Close()
		cache = sqliteCache
	} else {
		cache = fetch.NewMemoryCache()
	}
	client := fetch.NewClient(fetch.NewClientParams{
		Cache:             cache,
		RequestsPerSecond: opts.RequestsPerSecond,
		UserAgent:         opts.UserAgent,
	})

	resolver := source.NewResolver(source.NewResolverParams{Client: client})
	seeds, err := resolveSeeds(ctx, resolver, opts.Seeds, opts.Categories)
	if err != nil {
		return nil, err
	}

	wikidata := source.NewWikidata(source.NewWikidataParams{Client: client})
	wikipedia := source.NewWikipedia(source.NewWikipediaParams{Client: client})

	var tagger graph.Tagger
	if opts.Officials {
		roster, err := officials.NewClient(officials.NewClientParams{Fetcher: client}).Fetch(ctx)
		if err != nil {
			logger.Warn("[Pipeline] Continuing without official-record reconciliation", "error", err)
		} else {
			index := officials.NewIndex(roster)
			labels := map[string]string{}
			fetched, err := wikidata.FetchLabels(ctx, seeds)
			if err != nil {
				logger.Warn("[Pipeline] Failed to fetch seed labels", "error", err)
			}
			for id, label := range fetched {
				labels[id] = label.Label
			}
			seeds = officials.AugmentSeeds(ctx, index, resolver, seeds, labels)
			tagger = index
		}
	}

	crawler, err := graph.NewCrawler(graph.NewCrawlerParams{
		Relations: wikidata,
		Fallback:  wikipedia,
		Tagger:    tagger,
		Include:   include,
		MaxDepth:  opts.MaxDepth,
		MaxNodes:  opts.MaxNodes,
		MaxEdges:  opts.MaxEdges,
	})
	if err != nil {
		return nil, err
	}
	return crawler.Crawl(ctx, seeds)
}

// Enrich recomputes annotations and metrics in place. The override, when
// present, is a partial taxonomy document merged over the default.
func Enrich(g *graph.Graph, taxonomyOverride []byte) error {
	taxonomy, err := enrich.LoadTaxonomy(taxonomyOverride)
	if err != nil {
		return err
	}
	engine, err := enrich.NewEngine(enrich.NewEngineParams{Taxonomy: taxonomy})
	if err != nil {
		return err
	}
	return engine.Enrich(g)
}

func resolveSeeds(ctx context.Context, resolver *source.Resolver, seeds []string, categories []string) ([]string, error) {
	resolved := make([]string, 0, len(seeds))
	seen := make(map[string]struct{})
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		resolved = append(resolved, id)
	}

	for _, seed := range seeds {
		id, err := resolver.Resolve(ctx, seed)
		if err != nil {
			return nil, err
		}
		add(id)
	}
	for _, category := range categories {
		members, err := resolver.ResolveCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, id := range members {
			add(id)
		}
	}
	return resolved, nil
}
