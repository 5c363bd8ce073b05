// Package merge integrates externally-produced shared events into the
// local graph. The pull itself (git fetch or equivalent) happens outside
// this process; merge only folds in whatever new shared records the
// pull left on disk.
package merge

import (
	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/eventlog"
	"github.com/loamdev/loam/internal/graph"
	"github.com/loamdev/loam/internal/model"
)

// Report summarizes one sync pass.
type Report struct {
	Integrated   int      // shared events newly applied
	Orphaned     int      // edges queued for missing endpoints
	Corrupt      int      // malformed shared records skipped (and reported)
	OpenTensions []string // ids of tensions open after integration
}

// Sync reads shared-scope events not yet present in the graph and
// applies them through the projector in deterministic order.
//
// Non-destructive by construction: it only adds nodes and edges, never
// removes local-only data. Idempotent: a second call with no new shared
// input integrates zero events.
func Sync(log *eventlog.Log, g *graph.Graph) (Report, error) {
	shared, err := log.ReadAll(model.ScopeShared)
	if err != nil {
		return Report{}, err
	}

	// Id-set difference against what the graph has already folded in.
	var fresh []model.Event
	for _, ev := range shared.Events {
		if !g.Applied(ev.ID) {
			fresh = append(fresh, ev)
		}
	}

	projection := g.Replay(fresh)

	report := Report{
		Integrated: projection.Applied,
		Orphaned:   projection.Orphaned,
		Corrupt:    shared.Corrupt,
	}
	for _, t := range g.OpenTensions() {
		report.OpenTensions = append(report.OpenTensions, t.ID)
	}

	// Rejected events are integrity problems in the shared history;
	// surface the first one rather than burying it in a count.
	if len(projection.Rejected) > 0 {
		return report, apperr.Wrap(apperr.CodeIntegrity, "", projection.Rejected[0],
			"%d shared event(s) rejected during sync", len(projection.Rejected))
	}
	return report, nil
}
