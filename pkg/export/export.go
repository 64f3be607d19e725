// Package export writes graph snapshots to their interchange formats
// (JSON, GraphML, DOT, legend, kinship chart) and loads them back.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"polygraph/pkg/chart"
	"polygraph/pkg/graph"
	"polygraph/pkg/logger"
)

// Artifact file names inside an export directory.
const (
	NodesFile   = "nodes.json"
	EdgesFile   = "edges.json"
	GraphMLFile = "graph.graphml"
	DOTFile     = "graph.dot"
	LegendFile  = "legend.json"
	ChartFile   = "family_chart.json"
	StatsFile   = "stats.json"
)

// NodeRecord is the JSON interchange shape of a node.
type NodeRecord struct {
	ID             string         `json:"id"`
	Label          string         `json:"label"`
	Description    string         `json:"description,omitempty"`
	Attrs          map[string]any `json:"attrs,omitempty"`
	Layers         []string       `json:"layers,omitempty"`
	Clusters       []string       `json:"clusters,omitempty"`
	Aliases        []string       `json:"aliases,omitempty"`
	Level          *int           `json:"family_hierarchy_level,omitempty"`
	PrimaryRole    string         `json:"primary_role,omitempty"`
	SecondaryRoles []string       `json:"secondary_roles,omitempty"`
	Metrics        *graph.Metrics `json:"metrics,omitempty"`
}

// EdgeRecord is the JSON interchange shape of an edge.
type EdgeRecord struct {
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Relation     string         `json:"relation"`
	PredicateID  string         `json:"pid,omitempty"`
	SourceSystem string         `json:"source_system,omitempty"`
	EvidenceURL  string         `json:"evidence_url,omitempty"`
	RetrievedAt  string         `json:"retrieved_at,omitempty"`
	Attrs        map[string]any `json:"attrs,omitempty"`
	Type         string         `json:"type,omitempty"`
	Layer        string         `json:"layer,omitempty"`
	Weight       float64        `json:"weight,omitempty"`
}

// Records converts a graph into its interchange records.
func Records(g *graph.Graph) ([]*NodeRecord, []*EdgeRecord) {
	nodes := make([]*NodeRecord, 0, g.NodeCount())
	for _, node := range g.Nodes() {
		nodes = append(nodes, &NodeRecord{
			ID:             node.ID,
			Label:          node.Label,
			Description:    node.Description,
			Attrs:          node.Attrs,
			Layers:         node.Layers,
			Clusters:       node.Clusters,
			Aliases:        node.Aliases,
			Level:          node.Level,
			PrimaryRole:    node.PrimaryRole,
			SecondaryRoles: node.SecondaryRoles,
			Metrics:        node.Metrics,
		})
	}

	edges := make([]*EdgeRecord, 0, g.EdgeCount())
	for _, edge := range g.Edges() {
		edges = append(edges, &EdgeRecord{
			Source:       edge.Source,
			Target:       edge.Target,
			Relation:     edge.Relation,
			PredicateID:  edge.PredicateID,
			SourceSystem: edge.SourceSystem,
			EvidenceURL:  edge.EvidenceURL,
			RetrievedAt:  edge.RetrievedAt,
			Attrs:        edge.Attrs,
			Type:         edge.Type,
			Layer:        edge.Layer,
			Weight:       edge.Weight,
		})
	}
	return nodes, edges
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Export writes every artifact for the graph into dir, creating it if
// needed. Artifacts are independent, so they are written concurrently. The
// returned map gives the path of each artifact by name.
func Export(g *graph.Graph, dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	nodes, edges := Records(g)
	document := chart.Build(g)

	paths := map[string]string{
		"nodes":        filepath.Join(dir, NodesFile),
		"edges":        filepath.Join(dir, EdgesFile),
		"graphml":      filepath.Join(dir, GraphMLFile),
		"dot":          filepath.Join(dir, DOTFile),
		"legend":       filepath.Join(dir, LegendFile),
		"family_chart": filepath.Join(dir, ChartFile),
	}

	var group errgroup.Group
	group.Go(func() error { return writeJSON(paths["nodes"], nodes) })
	group.Go(func() error { return writeJSON(paths["edges"], edges) })
	group.Go(func() error { return writeGraphML(paths["graphml"], g) })
	group.Go(func() error { return writeDOT(paths["dot"], g) })
	group.Go(func() error { return writeJSON(paths["legend"], Legend) })
	group.Go(func() error { return writeJSON(paths["family_chart"], document) })
	if err := group.Wait(); err != nil {
		return nil, err
	}

	logger.Info("[Export] Snapshot written",
		"dir", dir, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return paths, nil
}

// ExportStats writes crawl run diagnostics alongside the graph artifacts.
func ExportStats(stats *graph.Stats, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return writeJSON(filepath.Join(dir, StatsFile), stats)
}
