// Package enrich computes batch analytics over a graph snapshot: centrality
// and community metrics, role inference, composite importance scoring, and
// edge classification.
package enrich

import (
	"encoding/json"
	"fmt"
)

// ConfigurationError reports an invalid taxonomy or engine configuration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid enrichment configuration: " + e.Reason
}

// RelationHint maps a substring of a free-text relation name to a semantic
// edge type. Hints are ordered; the first match wins.
type RelationHint struct {
	Substring string `json:"substring"`
	Type      string `json:"type"`
}

// Taxonomy bundles every lookup table the engine consults. Instances are
// plain values built from defaults plus an optional override document; the
// engine never mutates a taxonomy after construction and there is no
// package-level state.
type Taxonomy struct {
	// Roles maps role names to keyword lists for role inference.
	Roles map[string][]string `json:"roles"`

	// RoleOrder fixes the iteration order for role matching; the first
	// matching role becomes the node's primary role.
	RoleOrder []string `json:"role_order"`

	// AnchorRoles designates the roles whose nodes act as distance
	// anchors.
	AnchorRoles []string `json:"anchor_roles"`

	// EdgeTypes maps predicate ids to semantic edge types.
	EdgeTypes map[string]string `json:"edge_types"`

	// RelationHints classify edges whose predicate id is unknown, by
	// relation-name substring.
	RelationHints []RelationHint `json:"relation_hints"`

	// TypeLayers maps semantic edge types to coarse layers.
	TypeLayers map[string]string `json:"type_layers"`

	// TypeWeights maps semantic edge types to base weights.
	TypeWeights map[string]float64 `json:"type_weights"`
}

// DefaultTaxonomy returns the built-in lookup tables.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		Roles: map[string][]string{
			"head_of_state": {
				"president", "king", "queen", "emir", "sultan", "monarch",
				"head of state",
			},
			"politician": {
				"minister", "parliament", "senator", "governor", "chancellor",
				"politician", "government", "mayor", "diplomat", "ambassador",
			},
			"security": {
				"military", "army", "navy", "air force", "general", "admiral",
				"commander", "intelligence", "police", "defense",
			},
			"corporate": {
				"chairman", "chief executive", "businessperson", "company",
				"founder", "executive", "investor", "entrepreneur", "bank",
			},
			"royalty": {
				"prince", "princess", "sheikh", "royal", "duke", "duchess",
			},
		},
		RoleOrder:   []string{"head_of_state", "royalty", "politician", "security", "corporate"},
		AnchorRoles: []string{"head_of_state"},
		EdgeTypes: map[string]string{
			"P22":   "father",
			"P25":   "mother",
			"P26":   "spouse",
			"P40":   "child",
			"P3373": "sibling",
			"P1038": "relative",
			"P451":  "partner",
			"P39":   "position_held",
			"P102":  "member_of_party",
			"P463":  "member_of",
			"P108":  "employer",
			"P69":   "educated_at",
			"P6":    "head_of_government",
			"P35":   "head_of_state",
			"P488":  "chairperson",
			"P2388": "officeholder",
			"P241":  "military_branch",
			"P410":  "military_rank",
			"P1416": "affiliation",
			"P797":  "military_service",
			"P710":  "participant",
			"P127":  "owned_by",
			"P355":  "subsidiary",
			"P749":  "parent_organization",
			"P1056": "product_or_service",
			"P112":  "founded_by",
			"P1037": "director_manager",
		},
		RelationHints: []RelationHint{
			{Substring: "father", Type: "father"},
			{Substring: "mother", Type: "mother"},
			{Substring: "spouse", Type: "spouse"},
			{Substring: "child", Type: "child"},
			{Substring: "sibling", Type: "sibling"},
			{Substring: "relative", Type: "relative"},
			{Substring: "partner", Type: "partner"},
			{Substring: "position", Type: "position_held"},
			{Substring: "party", Type: "member_of_party"},
			{Substring: "member", Type: "member_of"},
			{Substring: "military", Type: "military_branch"},
			{Substring: "rank", Type: "military_rank"},
			{Substring: "owned", Type: "owned_by"},
			{Substring: "subsidiary", Type: "subsidiary"},
			{Substring: "founded", Type: "founded_by"},
			{Substring: "director", Type: "director_manager"},
		},
		TypeLayers: map[string]string{
			"father":              "family",
			"mother":              "family",
			"spouse":              "family",
			"child":               "family",
			"sibling":             "family",
			"relative":            "family",
			"partner":             "family",
			"position_held":       "political",
			"member_of_party":     "political",
			"member_of":           "political",
			"employer":            "political",
			"educated_at":         "political",
			"head_of_government":  "political",
			"head_of_state":       "political",
			"chairperson":         "political",
			"officeholder":        "political",
			"military_branch":     "security",
			"military_rank":       "security",
			"affiliation":         "security",
			"military_service":    "security",
			"participant":         "security",
			"owned_by":            "corporate",
			"subsidiary":          "corporate",
			"parent_organization": "corporate",
			"product_or_service":  "corporate",
			"founded_by":          "corporate",
			"director_manager":    "corporate",
		},
		TypeWeights: map[string]float64{
			"father":              3,
			"mother":              3,
			"child":               3,
			"spouse":              3,
			"sibling":             2,
			"partner":             2,
			"relative":            1,
			"position_held":       2,
			"member_of_party":     2,
			"member_of":           1.5,
			"employer":            1.5,
			"educated_at":         1,
			"head_of_government":  2.5,
			"head_of_state":       2.5,
			"chairperson":         2,
			"officeholder":        2,
			"military_branch":     2,
			"military_rank":       2,
			"affiliation":         1.5,
			"military_service":    1.5,
			"participant":         1,
			"owned_by":            2,
			"subsidiary":          2,
			"parent_organization": 2,
			"product_or_service":  1,
			"founded_by":          2,
			"director_manager":    1.5,
		},
	}
}

// LoadTaxonomy merges an override JSON document into the defaults. Maps
// merge key-wise with the override winning; list fields replace wholesale
// when present. An empty document returns the defaults unchanged.
func LoadTaxonomy(override []byte) (*Taxonomy, error) {
	taxonomy := DefaultTaxonomy()
	if len(override) == 0 {
		return taxonomy, nil
	}

	var doc Taxonomy
	if err := json.Unmarshal(override, &doc); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("failed to parse taxonomy override: %v", err)}
	}

	for role, keywords := range doc.Roles {
		taxonomy.Roles[role] = keywords
	}
	if len(doc.RoleOrder) > 0 {
		taxonomy.RoleOrder = doc.RoleOrder
	}
	if len(doc.AnchorRoles) > 0 {
		taxonomy.AnchorRoles = doc.AnchorRoles
	}
	for pid, edgeType := range doc.EdgeTypes {
		taxonomy.EdgeTypes[pid] = edgeType
	}
	if len(doc.RelationHints) > 0 {
		taxonomy.RelationHints = doc.RelationHints
	}
	for edgeType, layer := range doc.TypeLayers {
		taxonomy.TypeLayers[edgeType] = layer
	}
	for edgeType, weight := range doc.TypeWeights {
		taxonomy.TypeWeights[edgeType] = weight
	}

	if err := taxonomy.validate(); err != nil {
		return nil, err
	}
	return taxonomy, nil
}

func (t *Taxonomy) validate() error {
	for _, role := range t.RoleOrder {
		if _, ok := t.Roles[role]; !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("role order names unknown role %q", role)}
		}
	}
	for edgeType, weight := range t.TypeWeights {
		if weight < 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("negative weight for type %q", edgeType)}
		}
	}
	return nil
}
