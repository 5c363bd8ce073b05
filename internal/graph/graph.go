// Package graph materializes the decision graph from the event log.
//
// The Graph is the only mutable view of nodes and edges, and the
// projector in this package is its only writer. It holds no truth of
// its own: replaying the full event history into an empty Graph must
// reconstruct an identical graph, byte for byte, on any machine. That
// property is what makes crash recovery, check --repair, and the scope
// merger safe.
//
// Edges are stored in an id-keyed adjacency structure, never as
// pointers between node objects, so cyclic relationships are ordinary
// graph facts rather than memory hazards.
package graph

import (
	"sort"

	"github.com/loamdev/loam/internal/model"
)

type edgeKey struct {
	from string
	kind model.EdgeKind
	to   string
}

// Orphan is an edge whose endpoint did not exist at application time.
// It is queued and reported as a repairable issue, never silently
// dropped and never fatal to a replay.
type Orphan struct {
	EventID string
	Edge    model.EdgeCreated
	Scope   model.Scope
	Missing []string // the endpoint ids that were absent
}

// Graph is the projected node/edge state.
type Graph struct {
	nodes map[string]*model.Artifact
	edges []model.Edge // in application order
	index map[edgeKey]struct{}

	out map[string][]int // node id -> indexes into edges
	in  map[string][]int

	orphans []Orphan
	applied map[string]struct{} // event ids already folded in
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*model.Artifact),
		index:   make(map[edgeKey]struct{}),
		out:     make(map[string][]int),
		in:      make(map[string][]int),
		applied: make(map[string]struct{}),
	}
}

// Node returns the artifact with the given full id, or nil.
func (g *Graph) Node(id string) *model.Artifact {
	return g.nodes[id]
}

// HasNode reports whether an artifact id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Applied reports whether an event id has already been folded in.
// The scope merger uses this for its id-set difference.
func (g *Graph) Applied(eventID string) bool {
	_, ok := g.applied[eventID]
	return ok
}

// NodeIDs returns all artifact ids, sorted. This is the id universe for
// prefix resolution and collision checks.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EventIDs returns all applied event ids, sorted.
func (g *Graph) EventIDs() []string {
	ids := make([]string, 0, len(g.applied))
	for id := range g.applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edges returns every edge in application order. Callers must not
// mutate the returned slice.
func (g *Graph) Edges() []model.Edge {
	return g.edges
}

// Orphans returns the queued orphaned edges in application order.
func (g *Graph) Orphans() []Orphan {
	return g.orphans
}

// NodeCount returns the number of artifact nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of materialized edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// hasEdge reports whether an identical (from, kind, to) edge exists.
func (g *Graph) hasEdge(from string, kind model.EdgeKind, to string) bool {
	_, ok := g.index[edgeKey{from, kind, to}]
	return ok
}

// addEdge materializes an edge. Duplicate (from, kind, to) triples are
// no-ops so replays stay idempotent.
func (g *Graph) addEdge(e model.Edge) {
	key := edgeKey{e.From, e.Kind, e.To}
	if _, ok := g.index[key]; ok {
		return
	}
	g.index[key] = struct{}{}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.From] = append(g.out[e.From], idx)
	g.in[e.To] = append(g.in[e.To], idx)
}

// Snapshot renders the full node/edge state into a deterministic
// structure suitable for canonical JSON encoding. Two graphs are
// replay-equivalent exactly when their snapshots marshal to identical
// bytes.
func (g *Graph) Snapshot() map[string]any {
	nodeIDs := g.NodeIDs()
	nodes := make([]any, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		nodes = append(nodes, snapshotNode(g.nodes[id]))
	}

	edges := make([]any, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, map[string]any{
			"event_id": e.EventID,
			"from":     e.From,
			"kind":     string(e.Kind),
			"to":       e.To,
			"scope":    string(e.Scope),
		})
	}
	// Edge order is application order, which replay already makes
	// deterministic; sort by event id anyway so snapshots survive
	// re-partitioning of the same event set.
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].(map[string]any)["event_id"].(string) <
			edges[j].(map[string]any)["event_id"].(string)
	})

	orphans := make([]any, 0, len(g.orphans))
	for _, o := range g.orphans {
		orphans = append(orphans, map[string]any{
			"event_id": o.EventID,
			"from":     o.Edge.From,
			"kind":     string(o.Edge.Kind),
			"to":       o.Edge.To,
		})
	}
	// Queue order depends on how the event set was batched; sort by event
	// id so batch-wise and full-replay projections snapshot identically.
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].(map[string]any)["event_id"].(string) <
			orphans[j].(map[string]any)["event_id"].(string)
	})

	return map[string]any{
		"nodes":   nodes,
		"edges":   edges,
		"orphans": orphans,
	}
}

func snapshotNode(a *model.Artifact) map[string]any {
	n := map[string]any{
		"id":         a.ID,
		"kind":       string(a.Kind),
		"scope":      string(a.Scope),
		"content":    a.Content,
		"created_at": a.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
		"deprecated": a.Deprecated,
		"validation": string(a.Validation()),
	}
	if a.Domain != "" {
		n["domain"] = a.Domain
	}
	if a.SupersededBy != "" {
		n["superseded_by"] = a.SupersededBy
	}
	if a.Endorsements > 0 {
		n["endorsements"] = a.Endorsements
	}
	if len(a.Evidence) > 0 {
		n["evidence"] = a.Evidence
	}
	if a.Spec != nil {
		spec := map[string]any{}
		if a.Spec.Objective != "" {
			spec["objective"] = a.Spec.Objective
		}
		if len(a.Spec.Add) > 0 {
			spec["add"] = a.Spec.Add
		}
		if len(a.Spec.Modify) > 0 {
			spec["modify"] = a.Spec.Modify
		}
		if len(a.Spec.Remove) > 0 {
			spec["remove"] = a.Spec.Remove
		}
		if len(a.Spec.Preserve) > 0 {
			spec["preserve"] = a.Spec.Preserve
		}
		if len(a.Spec.Related) > 0 {
			spec["related"] = a.Spec.Related
		}
		n["spec"] = spec
	}
	if t := a.Tension; t != nil {
		tension := map[string]any{
			"target": t.Target,
			"state":  string(t.State),
		}
		if t.Outcome != "" {
			tension["outcome"] = string(t.Outcome)
		}
		if t.Resolution != "" {
			tension["resolution"] = t.Resolution
		}
		if len(t.Evidence) > 0 {
			tension["evidence"] = t.Evidence
		}
		n["tension"] = tension
	}
	return n
}
