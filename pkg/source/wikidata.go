package source

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"polygraph/pkg/fetch"
	"polygraph/pkg/graph"
	"polygraph/pkg/logger"
)

const (
	sparqlEndpoint = "https://query.wikidata.org/sparql"
	entityPrefix   = "http://www.wikidata.org/entity/"
)

// Property tables mapping Wikidata predicate ids to relation names, one per
// relation category. The crawl include flags select which tables are active.
var (
	FamilyProperties = map[string]string{
		"P22":   "father",
		"P25":   "mother",
		"P26":   "spouse",
		"P40":   "child",
		"P3373": "sibling",
		"P1038": "relative",
		"P451":  "partner",
	}

	PoliticalProperties = map[string]string{
		"P39":   "position_held",
		"P102":  "member_of_party",
		"P463":  "member_of",
		"P108":  "employer",
		"P69":   "educated_at",
		"P6":    "head_of_government",
		"P35":   "head_of_state",
		"P488":  "chairperson",
		"P2388": "officeholder",
	}

	SecurityProperties = map[string]string{
		"P241":  "military_branch",
		"P410":  "military_rank",
		"P1416": "affiliation",
		"P797":  "military_service",
		"P710":  "participant",
	}

	CorporateProperties = map[string]string{
		"P127":  "owned_by",
		"P355":  "subsidiary",
		"P749":  "parent_organization",
		"P1056": "product_or_service",
		"P112":  "founded_by",
		"P1037": "director_manager",
	}
)

// propertiesFor collects the active predicate tables for the include flags,
// sorted by predicate id so generated queries are deterministic.
func propertiesFor(include graph.IncludeFlags) map[string]string {
	merged := make(map[string]string)
	if include.Family {
		for pid, name := range FamilyProperties {
			merged[pid] = name
		}
	}
	if include.Political {
		for pid, name := range PoliticalProperties {
			merged[pid] = name
		}
	}
	if include.Security {
		for pid, name := range SecurityProperties {
			merged[pid] = name
		}
	}
	if include.Corporate {
		for pid, name := range CorporateProperties {
			merged[pid] = name
		}
	}
	return merged
}

// sparqlResponse is the JSON shape of the SPARQL results format.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Wikidata fetches relation edges and entity labels over the public SPARQL
// endpoint. It implements graph.RelationSource.
//
// A Wikidata source should be created using NewWikidata.
type Wikidata struct {
	client   *fetch.Client
	endpoint string
}

// NewWikidataParams defines the configuration for creating a Wikidata
// relation source. Endpoint defaults to the public query service.
type NewWikidataParams struct {
	Client   *fetch.Client
	Endpoint string
}

// NewWikidata creates a Wikidata relation source.
func NewWikidata(params NewWikidataParams) *Wikidata {
	endpoint := params.Endpoint
	if endpoint == "" {
		endpoint = sparqlEndpoint
	}
	return &Wikidata{client: params.Client, endpoint: endpoint}
}

func valuesClause(variable string, prefix string, ids []string) string {
	var b strings.Builder
	b.WriteString("VALUES ?")
	b.WriteString(variable)
	b.WriteString(" {")
	for _, id := range ids {
		b.WriteString(" ")
		b.WriteString(prefix)
		b.WriteString(id)
	}
	b.WriteString(" }")
	return b.String()
}

// FetchRelations queries the active predicates for a batch of subject ids
// and returns one edge per (subject, predicate, entity object) triple.
// Non-entity objects such as literals are skipped.
func (w *Wikidata) FetchRelations(ctx context.Context, ids []string, include graph.IncludeFlags) ([]*graph.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	properties := propertiesFor(include)
	if len(properties) == 0 {
		return nil, nil
	}
	pids := make([]string, 0, len(properties))
	for pid := range properties {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	query := fmt.Sprintf(
		"SELECT ?s ?p ?o WHERE { %s %s ?s ?p ?o . }",
		valuesClause("s", "wd:", ids),
		valuesClause("p", "wdt:", pids),
	)

	var response sparqlResponse
	if err := w.query(ctx, query, &response); err != nil {
		return nil, err
	}

	retrievedAt := time.Now().UTC().Format(time.RFC3339)
	edges := make([]*graph.Edge, 0, len(response.Results.Bindings))
	for _, binding := range response.Results.Bindings {
		subject := entityID(binding["s"].Value)
		object := entityID(binding["o"].Value)
		pid := propertyID(binding["p"].Value)
		if subject == "" || object == "" || pid == "" {
			continue
		}
		relation, ok := properties[pid]
		if !ok {
			continue
		}
		edges = append(edges, &graph.Edge{
			Source:       subject,
			Target:       object,
			Relation:     relation,
			PredicateID:  pid,
			SourceSystem: "wikidata",
			EvidenceURL:  entityPrefix + subject,
			RetrievedAt:  retrievedAt,
		})
	}

	logger.Debug("[Wikidata] Fetched relations", "subjects", len(ids), "edges", len(edges))
	return edges, nil
}

// FetchLabels queries English labels and descriptions for a batch of ids.
// Ids without a label are absent from the result map.
func (w *Wikidata) FetchLabels(ctx context.Context, ids []string) (map[string]graph.Label, error) {
	if len(ids) == 0 {
		return map[string]graph.Label{}, nil
	}

	query := fmt.Sprintf(
		"SELECT ?s ?sLabel ?sDescription WHERE { %s SERVICE wikibase:label { bd:serviceParam wikibase:language \"en\". } }",
		valuesClause("s", "wd:", ids),
	)

	var response sparqlResponse
	if err := w.query(ctx, query, &response); err != nil {
		return nil, err
	}

	labels := make(map[string]graph.Label, len(ids))
	for _, binding := range response.Results.Bindings {
		id := entityID(binding["s"].Value)
		if id == "" {
			continue
		}
		label := binding["sLabel"].Value
		// The label service echoes the id back when no label exists.
		if label == id {
			label = ""
		}
		labels[id] = graph.Label{
			Label:       label,
			Description: binding["sDescription"].Value,
		}
	}
	return labels, nil
}

func (w *Wikidata) query(ctx context.Context, query string, out *sparqlResponse) error {
	params := url.Values{
		"query":  {query},
		"format": {"json"},
	}
	headers := map[string]string{"Accept": "application/sparql-results+json"}
	if err := w.client.GetJSON(ctx, w.endpoint, params, headers, out); err != nil {
		return fmt.Errorf("sparql query failed: %w", err)
	}
	return nil
}

func entityID(value string) string {
	if !strings.HasPrefix(value, entityPrefix) {
		return ""
	}
	id := strings.TrimPrefix(value, entityPrefix)
	if !strings.HasPrefix(id, "Q") {
		return ""
	}
	return id
}

func propertyID(value string) string {
	idx := strings.LastIndex(value, "/")
	if idx < 0 {
		return ""
	}
	pid := value[idx+1:]
	if !strings.HasPrefix(pid, "P") {
		return ""
	}
	return pid
}
