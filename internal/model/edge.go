package model

// EdgeKind is the closed set of relationship types between artifacts.
type EdgeKind string

const (
	// EdgeSupports links an artifact to the purpose it serves.
	EdgeSupports EdgeKind = "supports"
	// EdgeImplements links a decision to a commit reference.
	EdgeImplements EdgeKind = "implements"
	// EdgeImplementedIn links a decision to a code or doc symbol.
	EdgeImplementedIn EdgeKind = "implemented_in"
	// EdgeEvolvesFrom links a replacement artifact to its ancestor.
	EdgeEvolvesFrom EdgeKind = "evolves_from"
	// EdgeSupersededBy links a deprecated artifact to its replacement.
	EdgeSupersededBy EdgeKind = "superseded_by"
	// EdgeTensionsWith links a tension to the artifact it challenges.
	EdgeTensionsWith EdgeKind = "tensions_with"
	// EdgeEvidenceFor links an evidence-bearing artifact to its target.
	EdgeEvidenceFor EdgeKind = "evidence_for"
	// EdgeEndorses links an endorsement to its target.
	EdgeEndorses EdgeKind = "endorses"
	// EdgeContains is structural, e.g. document -> section.
	EdgeContains EdgeKind = "contains"
)

// EdgeKinds lists every valid edge kind.
var EdgeKinds = []EdgeKind{
	EdgeSupports, EdgeImplements, EdgeImplementedIn, EdgeEvolvesFrom,
	EdgeSupersededBy, EdgeTensionsWith, EdgeEvidenceFor, EdgeEndorses,
	EdgeContains,
}

// ValidEdgeKind reports whether k is a known edge kind.
func ValidEdgeKind(k EdgeKind) bool {
	for _, kind := range EdgeKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Edge is a projected, directed relationship between two artifact ids.
// Endpoints are ids, not pointers, so cyclic relationships (mutual
// tensions_with, for example) are plain graph facts.
type Edge struct {
	EventID string   // id of the EdgeCreated event, doubles as edge id
	From    string
	Kind    EdgeKind
	To      string
	Scope   Scope
}
