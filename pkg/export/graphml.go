package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"

	"polygraph/pkg/graph"
)

// GraphML attribute values must be scalars. Non-scalar values (lists, maps)
// are JSON-encoded into strings so no metadata is lost in the round trip.
func graphmlValue(value any) (string, string) {
	switch v := value.(type) {
	case nil:
		return "", "string"
	case string:
		return v, "string"
	case bool:
		return strconv.FormatBool(v), "boolean"
	case int:
		return strconv.Itoa(v), "int"
	case int64:
		return strconv.FormatInt(v, 10), "long"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), "double"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), "string"
		}
		return string(encoded), "string"
	}
}

type graphmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type keyTable struct {
	ids   map[string]string
	keys  []graphmlKey
	scope string
}

func newKeyTable(scope string) *keyTable {
	return &keyTable{ids: make(map[string]string), scope: scope}
}

func (t *keyTable) keyFor(name string, attrType string) string {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := fmt.Sprintf("%s%d", t.scope[:1], len(t.ids))
	t.ids[name] = id
	t.keys = append(t.keys, graphmlKey{ID: id, For: t.scope, Name: name, Type: attrType})
	return id
}

func nodeAttrs(node *graph.Node) map[string]any {
	attrs := map[string]any{"label": node.Label}
	if node.Description != "" {
		attrs["description"] = node.Description
	}
	if len(node.Layers) > 0 {
		attrs["layers"] = node.Layers
	}
	if len(node.Clusters) > 0 {
		attrs["clusters"] = node.Clusters
	}
	if len(node.Aliases) > 0 {
		attrs["aliases"] = node.Aliases
	}
	if node.Level != nil {
		attrs["family_hierarchy_level"] = *node.Level
	}
	if node.PrimaryRole != "" {
		attrs["primary_role"] = node.PrimaryRole
	}
	if len(node.SecondaryRoles) > 0 {
		attrs["secondary_roles"] = node.SecondaryRoles
	}
	for key, value := range node.Attrs {
		attrs[key] = value
	}
	return attrs
}

func edgeAttrs(edge *graph.Edge) map[string]any {
	attrs := map[string]any{"relation": edge.Relation}
	if edge.PredicateID != "" {
		attrs["pid"] = edge.PredicateID
	}
	if edge.SourceSystem != "" {
		attrs["source_system"] = edge.SourceSystem
	}
	if edge.EvidenceURL != "" {
		attrs["evidence_url"] = edge.EvidenceURL
	}
	if edge.RetrievedAt != "" {
		attrs["retrieved_at"] = edge.RetrievedAt
	}
	if edge.Type != "" {
		attrs["type"] = edge.Type
	}
	if edge.Layer != "" {
		attrs["layer"] = edge.Layer
	}
	if edge.Weight != 0 {
		attrs["weight"] = edge.Weight
	}
	for key, value := range edge.Attrs {
		attrs[key] = value
	}
	return attrs
}

func sortedAttrData(attrs map[string]any, table *keyTable) []graphmlData {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([]graphmlData, 0, len(names))
	for _, name := range names {
		value, attrType := graphmlValue(attrs[name])
		data = append(data, graphmlData{Key: table.keyFor(name, attrType), Value: value})
	}
	return data
}

func writeGraphML(path string, g *graph.Graph) error {
	nodeKeys := newKeyTable("node")
	edgeKeys := newKeyTable("edge")

	doc := graphmlDoc{
		XMLNS: "http://graphml.graphdrawing.org/xmlns",
		Graph: graphmlGraph{ID: "G", EdgeDefault: "directed"},
	}

	for _, node := range g.Nodes() {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID:   node.ID,
			Data: sortedAttrData(nodeAttrs(node), nodeKeys),
		})
	}
	for _, edge := range g.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			Source: edge.Source,
			Target: edge.Target,
			Data:   sortedAttrData(edgeAttrs(edge), edgeKeys),
		})
	}
	doc.Keys = append(doc.Keys, nodeKeys.keys...)
	doc.Keys = append(doc.Keys, edgeKeys.keys...)

	encoded, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graphml: %w", err)
	}
	payload := append([]byte(xml.Header), encoded...)
	payload = append(payload, '\n')
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write graphml: %w", err)
	}
	return nil
}
