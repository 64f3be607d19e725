package graph

// Relation names for kinship edges as produced by the relation sources.
// Parent/child relations encode direction: a "child" edge points from parent
// to child, while "father"/"mother" edges point from child to parent.
var (
	FamilyRelations = map[string]bool{
		"father":   true,
		"mother":   true,
		"spouse":   true,
		"child":    true,
		"sibling":  true,
		"relative": true,
		"partner":  true,
	}

	PeerRelations = map[string]bool{
		"spouse":   true,
		"partner":  true,
		"sibling":  true,
		"relative": true,
	}

	PartnerRelations = map[string]bool{
		"spouse":  true,
		"partner": true,
	}

	SiblingRelations = map[string]bool{
		"sibling":  true,
		"relative": true,
	}

	ParentalRelations = map[string]bool{
		"father": true,
		"mother": true,
		"child":  true,
	}
)

// ParentChild normalizes a parental edge into an explicit (parent, child)
// pair. Returns ok=false for non-parental relations.
func ParentChild(e *Edge) (parent string, child string, ok bool) {
	switch e.Relation {
	case "child":
		return e.Source, e.Target, true
	case "father", "mother":
		return e.Target, e.Source, true
	default:
		return "", "", false
	}
}
