package officials

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"polygraph/pkg/graph"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case fold", "José MARTÍNEZ", "jose martinez"},
		{"punctuation collapse", "al-Bashir,  Omar", "al bashir omar"},
		{"trim", "  Jordan  ", "jordan"},
		{"apostrophe", "People's Republic", "people s republic"},
		{"empty", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		position string
		want     []string
	}{
		{"Minister of Defense", []string{"government", "military"}},
		{"Director, Intelligence Agency", []string{"bureaucrat"}},
		{"Prime Minister", []string{"government"}},
		{"Ambassador to the North", []string{"government"}},
		{"Chief of Staff, Army", []string{"military"}},
	}

	for _, tt := range tests {
		t.Run(tt.position, func(t *testing.T) {
			if got := Classify(tt.position); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func testRoster() []*Official {
	return []*Official{
		{Country: "Republic of Examplestan", Position: "President", Name: "Alice Example", Categories: Classify("President")},
		{Country: "Republic of Examplestan", Position: "Minister of Defense", Name: "Bob Example", Categories: Classify("Minister of Defense")},
		{Country: "Otherland", Position: "Prime Minister", Name: "Carol Other", Categories: Classify("Prime Minister")},
	}
}

func TestCountriesForLabels(t *testing.T) {
	index := NewIndex(testRoster())

	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{"exact", []string{"Republic of Examplestan"}, []string{"Republic of Examplestan"}},
		{"prefix stripped", []string{"Examplestan"}, []string{"Republic of Examplestan"}},
		{"suffix match", []string{"Government of Otherland"}, []string{"Otherland"}},
		{"no match", []string{"Nowhere"}, []string{}},
		{"empty labels", []string{""}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := index.CountriesForLabels(tt.labels); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestByName(t *testing.T) {
	index := NewIndex(testRoster())

	officials := index.ByName("alice   EXAMPLE")
	if len(officials) != 1 || officials[0].Name != "Alice Example" {
		t.Fatalf("expected the normalized name to match, got %v", officials)
	}
}

// strictResolver fails the test when asked to resolve the same name twice.
type strictResolver struct {
	t       *testing.T
	results map[string]string
	calls   map[string]int
}

func (r *strictResolver) Resolve(_ context.Context, seed string) (string, error) {
	r.calls[seed]++
	if r.calls[seed] > 1 {
		r.t.Fatalf("resolver invoked twice for %q", seed)
	}
	if id, ok := r.results[seed]; ok {
		return id, nil
	}
	return "", fmt.Errorf("no match for %q", seed)
}

func TestResolveOfficialMemoizes(t *testing.T) {
	index := NewIndex(testRoster())
	resolver := &strictResolver{
		t:       t,
		results: map[string]string{"Alice Example": "Q100"},
		calls:   map[string]int{},
	}
	alice := index.ByName("Alice Example")[0]
	bob := index.ByName("Bob Example")[0]

	for i := 0; i < 3; i++ {
		if id := index.ResolveOfficial(context.Background(), alice, resolver); id != "Q100" {
			t.Fatalf("expected Q100, got %q", id)
		}
	}

	// Failures memoize the same way.
	for i := 0; i < 3; i++ {
		if id := index.ResolveOfficial(context.Background(), bob, resolver); id != "" {
			t.Fatalf("expected an unresolved official, got %q", id)
		}
	}
}

func TestAnnotateGrowsSets(t *testing.T) {
	index := NewIndex(testRoster())

	g := graph.New()
	node := g.SetNode("Q100", "Alice Example", "")

	index.AssociateID("Q100", "Alice Example")
	index.Annotate(node, "Alice Example")
	index.Annotate(node, "Alice Example")

	if !reflect.DeepEqual(node.Layers, []string{"government"}) {
		t.Fatalf("expected a single government layer, got %v", node.Layers)
	}
	roles, _ := node.Attrs["government_roles"].([]string)
	if !reflect.DeepEqual(roles, []string{"President@Republic of Examplestan"}) {
		t.Fatalf("unexpected roles %v", roles)
	}
	countries, _ := node.Attrs["government_countries"].([]string)
	if !reflect.DeepEqual(countries, []string{"Republic of Examplestan"}) {
		t.Fatalf("unexpected countries %v", countries)
	}
}

func TestAnnotateFallsBackToLabel(t *testing.T) {
	index := NewIndex(testRoster())

	g := graph.New()
	node := g.SetNode("Q200", "Carol Other", "")

	// No id association yet; the label lookup still finds the official.
	index.Annotate(node, "Carol Other")
	if !reflect.DeepEqual(node.Layers, []string{"government"}) {
		t.Fatalf("expected annotation via label, got %v", node.Layers)
	}
}

func TestAugmentSeeds(t *testing.T) {
	index := NewIndex(testRoster())
	resolver := &strictResolver{
		t: t,
		results: map[string]string{
			"Alice Example": "Q100",
			"Bob Example":   "Q101",
		},
		calls: map[string]int{},
	}

	seeds := []string{"Q100"}
	labels := map[string]string{"Q100": "Examplestan"}

	augmented := AugmentSeeds(context.Background(), index, resolver, seeds, labels)

	want := []string{"Q100", "Q101"}
	if !reflect.DeepEqual(augmented, want) {
		t.Fatalf("expected %v, got %v", want, augmented)
	}
}
