package graph

import (
	"sort"

	"polygraph/pkg/logger"
)

// Stats collects diagnostics during a crawl run for debugging and QA.
type Stats struct {
	SeedIDs        []string       `json:"seed_ids"`
	ExpandedNodes  int            `json:"expanded_nodes"`
	RelationCounts map[string]int `json:"relation_counts"`
	DepthHistogram map[int]int    `json:"depth_histogram"`
	FallbackEdges  int            `json:"fallback_edges"`
	Warnings       []string       `json:"warnings"`
	TotalNodes     int            `json:"total_nodes"`
	TotalEdges     int            `json:"total_edges"`
}

func newStats(seedIDs []string) *Stats {
	return &Stats{
		SeedIDs:        append([]string(nil), seedIDs...),
		RelationCounts: make(map[string]int),
		DepthHistogram: make(map[int]int),
	}
}

// Log writes a concise run summary through the logger facade.
func (s *Stats) Log() {
	logger.Info("[Crawl] Run summary",
		"seeds", len(s.SeedIDs),
		"expanded", s.ExpandedNodes,
		"nodes", s.TotalNodes,
		"edges", s.TotalEdges,
	)

	if len(s.RelationCounts) > 0 {
		relations := make([]string, 0, len(s.RelationCounts))
		for relation := range s.RelationCounts {
			relations = append(relations, relation)
		}
		sort.Strings(relations)
		keyvals := make([]any, 0, len(relations)*2)
		for _, relation := range relations {
			keyvals = append(keyvals, relation, s.RelationCounts[relation])
		}
		logger.Info("[Crawl] Relations", keyvals...)
	}

	if s.FallbackEdges > 0 {
		logger.Info("[Crawl] Fallback-sourced edges", "count", s.FallbackEdges)
	}
	for _, warning := range s.Warnings {
		logger.Warn("[Crawl] " + warning)
	}
}
