// Package source implements the relation sources the crawl engine draws
// from: the Wikidata SPARQL endpoint as the primary source, the MediaWiki
// APIs for seed resolution, and Wikipedia infobox extraction as the
// low-confidence fallback.
package source

import "context"

// SeedResolver turns free-form seed inputs (canonical ids, article titles,
// category names) into canonical entity ids.
type SeedResolver interface {
	Resolve(ctx context.Context, seed string) (string, error)
	ResolveCategory(ctx context.Context, category string) ([]string, error)
}

// ResolutionError reports a seed that could not be mapped to an entity id.
type ResolutionError struct {
	Seed   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return "failed to resolve seed " + e.Seed + ": " + e.Reason
}
