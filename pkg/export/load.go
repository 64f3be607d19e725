package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"polygraph/pkg/graph"
)

// DataError reports a snapshot that cannot be loaded or fails validation.
type DataError struct {
	Path   string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid snapshot data at %s: %s", e.Path, e.Reason)
}

func readRecords(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &DataError{Path: path, Reason: err.Error()}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DataError{Path: path, Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return nil
}

// Load rebuilds a graph from the nodes.json and edges.json of an export
// directory. Malformed input or dangling edge endpoints fail the whole load;
// there is no partial recovery.
func Load(dir string) (*graph.Graph, error) {
	var nodes []*NodeRecord
	if err := readRecords(filepath.Join(dir, NodesFile), &nodes); err != nil {
		return nil, err
	}
	var edges []*EdgeRecord
	if err := readRecords(filepath.Join(dir, EdgesFile), &edges); err != nil {
		return nil, err
	}
	return FromRecords(dir, nodes, edges)
}

// FromRecords assembles a graph from interchange records. The path argument
// only labels errors.
func FromRecords(path string, nodes []*NodeRecord, edges []*EdgeRecord) (*graph.Graph, error) {
	g := graph.New()
	for _, record := range nodes {
		if record.ID == "" {
			return nil, &DataError{Path: path, Reason: "node record without an id"}
		}
		node := g.SetNode(record.ID, record.Label, record.Description)
		if record.Attrs != nil {
			node.Attrs = record.Attrs
		}
		node.Layers = record.Layers
		node.Clusters = record.Clusters
		node.Aliases = record.Aliases
		node.Level = record.Level
		node.PrimaryRole = record.PrimaryRole
		node.SecondaryRoles = record.SecondaryRoles
		node.Metrics = record.Metrics
	}

	if offenders := danglingEdges(g, edges); len(offenders) > 0 {
		return nil, &DataError{
			Path:   path,
			Reason: "edges reference missing nodes: " + strings.Join(offenders, ", "),
		}
	}

	for _, record := range edges {
		err := g.AddEdge(&graph.Edge{
			Source:       record.Source,
			Target:       record.Target,
			Relation:     record.Relation,
			PredicateID:  record.PredicateID,
			SourceSystem: record.SourceSystem,
			EvidenceURL:  record.EvidenceURL,
			RetrievedAt:  record.RetrievedAt,
			Attrs:        record.Attrs,
			Type:         record.Type,
			Layer:        record.Layer,
			Weight:       record.Weight,
		})
		if err != nil {
			return nil, &DataError{Path: path, Reason: err.Error()}
		}
	}
	return g, nil
}

func danglingEdges(g *graph.Graph, edges []*EdgeRecord) []string {
	var offenders []string
	for _, record := range edges {
		if !g.HasNode(record.Source) {
			offenders = append(offenders, record.Source)
		}
		if !g.HasNode(record.Target) {
			offenders = append(offenders, record.Target)
		}
		if len(offenders) >= 3 {
			break
		}
	}
	return offenders
}

// Validate checks an export directory: both interchange files must parse and
// every edge endpoint must exist in the node list.
func Validate(dir string) error {
	_, err := Load(dir)
	return err
}
