package engine

import (
	"bytes"
	"encoding/hex"

	"lukechampine.com/blake3"

	"github.com/loamdev/loam/internal/graph"
	"github.com/loamdev/loam/internal/model"
)

// CheckReport is the result of an integrity pass over the store.
type CheckReport struct {
	Nodes       int      // artifact nodes in the graph
	Edges       int      // materialized edges
	Orphans     []string // event ids of edges still waiting for endpoints
	Corrupt     int      // malformed log records skipped
	Rejected    []string // messages for events the projector refused
	Consistent  bool     // in-memory graph matches a from-scratch replay
	Fingerprint string   // hash of the canonical rebuilt snapshot
	Repaired    bool     // the in-memory graph was replaced by the rebuild
}

// Check replays the full event log into a fresh graph and compares it
// against the live one. With repair set, a mismatched live graph is
// replaced by the rebuild; the rebuild also re-runs orphan adoption, so
// edges whose endpoints have since arrived get materialized.
//
// The log itself is never modified. Repair fixes projections, not
// history.
func (e *Engine) Check(repair bool) (CheckReport, error) {
	read, err := e.log.ReadBoth()
	if err != nil {
		return CheckReport{}, err
	}

	rebuilt := graph.New()
	projection := rebuilt.Replay(read.Events)

	rebuiltBytes, err := model.MarshalCanonical(rebuilt.Snapshot())
	if err != nil {
		return CheckReport{}, err
	}
	liveBytes, err := model.MarshalCanonical(e.graph.Snapshot())
	if err != nil {
		return CheckReport{}, err
	}

	sum := blake3.Sum256(rebuiltBytes)
	report := CheckReport{
		Nodes:       rebuilt.NodeCount(),
		Edges:       rebuilt.EdgeCount(),
		Corrupt:     read.Corrupt,
		Consistent:  bytes.Equal(rebuiltBytes, liveBytes),
		Fingerprint: hex.EncodeToString(sum[:]),
	}
	for _, o := range rebuilt.Orphans() {
		report.Orphans = append(report.Orphans, o.EventID)
	}
	for _, rej := range projection.Rejected {
		report.Rejected = append(report.Rejected, rej.Error())
	}

	if repair && !report.Consistent {
		e.graph = rebuilt
		report.Repaired = true
	}
	return report, nil
}

// Status is a lightweight load summary for the open handle.
type Status struct {
	Nodes         int
	Edges         int
	Orphans       int
	CorruptOnLoad int
	RejectedLoad  int
}

// Status reports what the open-time replay produced.
func (e *Engine) Status() Status {
	return Status{
		Nodes:         e.graph.NodeCount(),
		Edges:         e.graph.EdgeCount(),
		Orphans:       len(e.graph.Orphans()),
		CorruptOnLoad: e.loadCorrupt,
		RejectedLoad:  len(e.loadReport.Rejected),
	}
}
