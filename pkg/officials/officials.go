// Package officials loads official-record rosters and builds the
// reconciliation index that tags graph nodes with government metadata.
package officials

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"polygraph/pkg/fetch"
	"polygraph/pkg/logger"
)

const (
	// RosterURL serves the world-leaders roster as newline-delimited
	// FollowTheMoney entities.
	RosterURL = "https://data.opensanctions.org/datasets/latest/us_cia_world_leaders/entities.ftm.json"

	// LegacyRosterURL is the original publisher's page-data endpoint,
	// used when the FTM mirror fails or is empty.
	LegacyRosterURL = "https://www.cia.gov/resources/world-leaders/page-data/index/page-data.json"
)

// Official is one roster record: a named position in a country's government.
// Categories are the classification tags derived from the position text.
type Official struct {
	Country    string   `json:"country"`
	Position   string   `json:"position"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// Key identifies an official for resolution caching.
func (o *Official) Key() string {
	return o.Country + "\x00" + o.Name
}

// Client fetches official rosters. The FTM mirror is preferred; the legacy
// endpoint is a best-effort fallback with a looser payload shape.
//
// A Client should be created using NewClient.
type Client struct {
	fetcher   *fetch.Client
	url       string
	legacyURL string
}

// NewClientParams defines the configuration for creating an officials
// Client. URLs default to the public endpoints.
type NewClientParams struct {
	Fetcher   *fetch.Client
	URL       string
	LegacyURL string
}

// NewClient creates an officials Client.
func NewClient(params NewClientParams) *Client {
	url := params.URL
	if url == "" {
		url = RosterURL
	}
	legacyURL := params.LegacyURL
	if legacyURL == "" {
		legacyURL = LegacyRosterURL
	}
	return &Client{fetcher: params.Fetcher, url: url, legacyURL: legacyURL}
}

// Fetch loads the roster, preferring the FTM mirror and falling back to the
// legacy endpoint when the mirror fails or yields nothing. An empty roster
// from both endpoints is not an error; callers treat it as "no index".
func (c *Client) Fetch(ctx context.Context) ([]*Official, error) {
	officials, err := c.fetchFTM(ctx)
	if err != nil {
		logger.Warn("[Officials] FTM roster fetch failed", "error", err)
	}
	if len(officials) > 0 {
		return officials, nil
	}

	logger.Info("[Officials] Falling back to legacy roster endpoint")
	return c.fetchLegacy(ctx)
}

// ftmEntity is one newline-delimited FollowTheMoney record. Property values
// are lists of strings in well-formed records, but the feed occasionally
// carries bare strings.
type ftmEntity struct {
	Properties map[string]any `json:"properties"`
}

func (c *Client) fetchFTM(ctx context.Context) ([]*Official, error) {
	response, err := c.fetcher.Get(ctx, c.url, nil, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var officials []*Official
	for _, line := range strings.Split(string(response.Body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entity ftmEntity
		if err := decodeFlexible(line, &entity); err != nil {
			logger.Debug("[Officials] Skipping undecodable roster line", "error", err)
			continue
		}
		if official := officialFromFTM(&entity); official != nil {
			officials = append(officials, official)
		}
	}
	return officials, nil
}

// decodeFlexible unmarshals JSON that may be malformed, repairing it before
// giving up.
func decodeFlexible(input string, out any) error {
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: %w", err)
	}
	return nil
}

func firstProperty(props map[string]any, keys ...string) string {
	for _, key := range keys {
		switch value := props[key].(type) {
		case []any:
			for _, candidate := range value {
				if s, ok := candidate.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		case string:
			if strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func officialFromFTM(entity *ftmEntity) *Official {
	if entity.Properties == nil {
		return nil
	}

	name := firstProperty(entity.Properties, "name", "alias")
	position := firstProperty(entity.Properties, "position", "title", "summary")
	country := firstProperty(entity.Properties, "country", "jurisdiction", "nationality")
	if name == "" || position == "" || country == "" {
		return nil
	}

	return &Official{
		Country:    country,
		Position:   position,
		Name:       name,
		Categories: Classify(position),
	}
}

func (c *Client) fetchLegacy(ctx context.Context) ([]*Official, error) {
	var payload map[string]any
	err := c.fetcher.GetJSON(ctx, c.legacyURL, nil, map[string]string{"Accept": "application/json"}, &payload)
	if err != nil {
		return nil, err
	}

	var officials []*Official
	for _, country := range extractCountries(payload) {
		countryName := stringField(country, "name", "country", "countryName")
		if countryName == "" {
			continue
		}
		for _, person := range extractPeople(country) {
			name := stringField(person, "name", "person", "leader")
			position := stringField(person, "title", "position", "role")
			if name == "" || position == "" {
				continue
			}
			officials = append(officials, &Official{
				Country:    countryName,
				Position:   position,
				Name:       name,
				Categories: Classify(position),
			})
		}
	}
	return officials, nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// extractCountries walks the nested page-data payload breadth-first until it
// finds a "countries" list. The legacy endpoint buries it several levels
// deep and has shifted its exact path over time.
func extractCountries(payload map[string]any) []map[string]any {
	queue := []any{payload}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		switch node := current.(type) {
		case map[string]any:
			if raw, ok := node["countries"].([]any); ok {
				countries := make([]map[string]any, 0, len(raw))
				for _, entry := range raw {
					if m, ok := entry.(map[string]any); ok {
						countries = append(countries, m)
					}
				}
				if len(countries) > 0 {
					return countries
				}
			}
			for _, key := range sortedKeys(node) {
				queue = append(queue, node[key])
			}
		case []any:
			queue = append(queue, node...)
		}
	}
	return nil
}

// extractPeople yields person records from a country entry regardless of
// nesting, recognizing them by a name plus title or position field.
func extractPeople(country map[string]any) []map[string]any {
	var people []map[string]any
	queue := []any{country}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		switch node := current.(type) {
		case map[string]any:
			keys := make(map[string]bool, len(node))
			for key := range node {
				keys[strings.ToLower(key)] = true
			}
			if keys["name"] && (keys["title"] || keys["position"]) {
				people = append(people, node)
				continue
			}
			for _, key := range sortedKeys(node) {
				queue = append(queue, node[key])
			}
		case []any:
			queue = append(queue, node...)
		}
	}
	return people
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
