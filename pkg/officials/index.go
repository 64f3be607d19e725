package officials

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"polygraph/pkg/graph"
	"polygraph/pkg/logger"
)

// Keyword families for classifying position text. Government doubles as the
// fallback category when nothing else matches.
var (
	GovernmentKeywords = []string{
		"minister", "prime minister", "president", "secretary", "governor",
		"chancellor", "king", "queen", "emir", "sultan", "speaker", "cabinet",
		"council", "parliament", "vice president", "deputy",
		"head of government", "chief of state",
	}

	MilitaryKeywords = []string{
		"defense", "armed forces", "military", "army", "navy", "air force",
		"commander", "general", "admiral", "marshal", "brigadier",
		"chief of staff",
	}

	BureaucratKeywords = []string{
		"interior", "finance", "treasury", "economy", "planning",
		"civil service", "intelligence", "security", "central bank", "bank",
		"agency", "authority", "commission", "administration", "director",
	}
)

// Classify derives sorted category tags from a position's text. Military and
// bureaucrat tags come from keyword matches; government is added on its own
// keywords or as the default when neither other family matched.
func Classify(position string) []string {
	lowered := strings.ToLower(position)

	var categories []string
	if containsAny(lowered, MilitaryKeywords) {
		categories = append(categories, "military")
	}
	if containsAny(lowered, BureaucratKeywords) {
		categories = append(categories, "bureaucrat")
	}
	if containsAny(lowered, GovernmentKeywords) || len(categories) == 0 {
		categories = append([]string{"government"}, categories...)
	}
	return graph.UnionSet(nil, categories...)
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

var (
	diacriticStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	nonAlnumPattern   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Normalize case-folds text, strips diacritics, collapses non-alphanumeric
// runs to single spaces, and trims. All name and country matching goes
// through it.
func Normalize(text string) string {
	stripped, _, err := transform.String(diacriticStripper, text)
	if err != nil {
		stripped = text
	}
	lowered := strings.ToLower(stripped)
	return strings.TrimSpace(nonAlnumPattern.ReplaceAllString(lowered, " "))
}

// Sovereign-state prefixes stripped for country key generation, already in
// normalized form.
var countryPrefixes = []string{
	"the ",
	"republic of ",
	"kingdom of ",
	"state of ",
	"federal republic of ",
	"people s republic of ",
}

func countryKeys(country string) []string {
	base := Normalize(country)
	if base == "" {
		return nil
	}
	keys := []string{base}
	for _, prefix := range countryPrefixes {
		if strings.HasPrefix(base, prefix) {
			if trimmed := base[len(prefix):]; trimmed != "" {
				keys = append(keys, trimmed)
			}
		}
	}
	return keys
}

// Resolver maps an official's name to a canonical entity id. The seed
// resolver in pkg/source satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, seed string) (string, error)
}

// Index is the reconciliation index over a fixed roster of officials. It
// memoizes name resolution per (country, name) pair for its lifetime and
// implements graph.Tagger. Lookups are read-mostly; the resolution cache and
// id associations grow during a crawl and assume a single accessing
// goroutine.
//
// An Index should be created using NewIndex.
type Index struct {
	officials []*Official
	byCountry map[string][]*Official
	byName    map[string][]*Official
	byID      map[string][]*Official

	countryLookup map[string]string

	// resolution maps (country, name) to an id, with "" memoizing failure.
	resolution map[string]string
}

// NewIndex builds an Index from a roster.
func NewIndex(roster []*Official) *Index {
	index := &Index{
		officials:     roster,
		byCountry:     make(map[string][]*Official),
		byName:        make(map[string][]*Official),
		byID:          make(map[string][]*Official),
		countryLookup: make(map[string]string),
		resolution:    make(map[string]string),
	}

	for _, official := range roster {
		index.byCountry[official.Country] = append(index.byCountry[official.Country], official)
		nameKey := Normalize(official.Name)
		index.byName[nameKey] = append(index.byName[nameKey], official)
		for _, key := range countryKeys(official.Country) {
			if _, exists := index.countryLookup[key]; !exists {
				index.countryLookup[key] = official.Country
			}
		}
	}
	return index
}

// Size returns the roster size.
func (x *Index) Size() int {
	return len(x.officials)
}

// ByCountry returns the officials recorded for a country, keyed by the
// roster's original country string.
func (x *Index) ByCountry(country string) []*Official {
	return x.byCountry[country]
}

// ByName returns the officials whose normalized name matches.
func (x *Index) ByName(name string) []*Official {
	return x.byName[Normalize(name)]
}

// CountriesForLabels maps free-text labels to known roster countries. Exact
// normalized matches win; otherwise suffix containment in either direction
// catches labels like "government of X" or bare short forms.
func (x *Index) CountriesForLabels(labels []string) []string {
	matches := make(map[string]bool)
	for _, label := range labels {
		if label == "" {
			continue
		}
		key := Normalize(label)
		if key == "" {
			continue
		}
		if country, ok := x.countryLookup[key]; ok {
			matches[country] = true
			continue
		}
		for candidate, country := range x.countryLookup {
			if strings.HasSuffix(key, candidate) || strings.HasSuffix(candidate, key) {
				matches[country] = true
			}
		}
	}

	countries := make([]string, 0, len(matches))
	for country := range matches {
		countries = append(countries, country)
	}
	return graph.UnionSet(nil, countries...)
}

// ResolveOfficial maps an official to a canonical entity id through the
// injected resolver, memoizing successes and failures so the resolver is
// never invoked twice for the same (country, name) pair.
func (x *Index) ResolveOfficial(ctx context.Context, official *Official, resolver Resolver) string {
	key := official.Key()
	if id, ok := x.resolution[key]; ok {
		return id
	}

	id, err := resolver.Resolve(ctx, official.Name)
	if err != nil {
		logger.Debug("[Officials] Resolution failed", "name", official.Name, "error", err)
		id = ""
	}
	if id != "" {
		x.recordID(id, official)
	}
	x.resolution[key] = id
	return id
}

func (x *Index) recordID(id string, official *Official) {
	x.byID[id] = append(x.byID[id], official)
}

// AssociateID records that an entity id carries an official's name, so later
// annotation finds the officials even without a label.
func (x *Index) AssociateID(id string, label string) {
	if label == "" {
		return
	}
	for _, official := range x.ByName(label) {
		x.recordID(id, official)
	}
}

func (x *Index) officialsForID(id string, label string) []*Official {
	if officials := x.byID[id]; len(officials) > 0 {
		return officials
	}
	if label != "" {
		return x.ByName(label)
	}
	return nil
}

// Annotate unions the matching officials' category tags, countries, and
// position@country role strings into the node's annotation sets. Repeated
// calls only grow the sets.
func (x *Index) Annotate(node *graph.Node, label string) {
	officials := x.officialsForID(node.ID, label)
	if len(officials) == 0 {
		return
	}

	var categories, countries, roles []string
	for _, official := range officials {
		categories = append(categories, official.Categories...)
		countries = append(countries, official.Country)
		roles = append(roles, fmt.Sprintf("%s@%s", official.Position, official.Country))
	}

	node.Layers = graph.UnionSet(node.Layers, categories...)
	graph.UnionAttrSet(node.Attrs, "government_countries", countries...)
	graph.UnionAttrSet(node.Attrs, "government_roles", roles...)
}

// AugmentSeeds extends a seed list with the resolved officials of every
// country matched by the seed labels. Seeds keep their order; resolved ids
// append once each. Resolution failures skip the official silently.
func AugmentSeeds(ctx context.Context, index *Index, resolver Resolver, seeds []string, labels map[string]string) []string {
	for id, label := range labels {
		index.AssociateID(id, label)
	}

	labelValues := make([]string, 0, len(labels))
	for _, label := range labels {
		labelValues = append(labelValues, label)
	}
	countries := index.CountriesForLabels(labelValues)

	augmented := make([]string, 0, len(seeds))
	seen := make(map[string]bool, len(seeds))
	for _, id := range seeds {
		if !seen[id] {
			seen[id] = true
			augmented = append(augmented, id)
		}
	}

	for _, country := range countries {
		for _, official := range index.ByCountry(country) {
			id := index.ResolveOfficial(ctx, official, resolver)
			if id != "" && !seen[id] {
				seen[id] = true
				augmented = append(augmented, id)
			}
		}
	}

	if len(augmented) > len(seeds) {
		logger.Info("[Officials] Augmented seeds from roster",
			"seeds", len(seeds), "augmented", len(augmented))
	}
	return augmented
}
