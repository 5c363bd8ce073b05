// Package engine wires the event log, the projector, the id allocator,
// and injected services into a single handle exposing the write
// operations.
//
// An Engine is opened once per process invocation and passed explicitly
// to whoever needs it; there is no hidden global. Opening replays the
// full event history of both scopes through the projector, so the
// in-memory graph and the on-disk log can never drift within a process:
// every write operation appends exactly one event and immediately folds
// it into the graph.
package engine

import (
	"time"

	"github.com/loamdev/loam/internal/eventlog"
	"github.com/loamdev/loam/internal/extract"
	"github.com/loamdev/loam/internal/graph"
	"github.com/loamdev/loam/internal/ident"
	"github.com/loamdev/loam/internal/model"
)

// Clock supplies event timestamps. Production uses the wall clock in
// UTC; tests inject a deterministic one.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Options configures Open. Zero values get defaults: the system clock
// and the no-op extraction service.
type Options struct {
	Root      string          // data root holding the scope partitions
	Author    string          // stamped on every event this process appends
	Clock     Clock
	Extractor extract.Service
}

// Engine is the single handle on the knowledge graph for one process.
type Engine struct {
	log       *eventlog.Log
	graph     *graph.Graph
	clock     Clock
	author    string
	extractor extract.Service

	loadCorrupt int          // corrupt records skipped while loading
	loadReport  graph.Report // projection report from the load replay
}

// Open opens the event log under opts.Root and rebuilds the graph from
// it. Corrupt records and rejected events are counted and kept on the
// handle for Check to report; they never abort the open.
func Open(opts Options) (*Engine, error) {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.NewNoop()
	}

	log, err := eventlog.Open(opts.Root)
	if err != nil {
		return nil, err
	}

	report, err := log.ReadBoth()
	if err != nil {
		return nil, err
	}

	g := graph.New()
	projection := g.Replay(report.Events)

	return &Engine{
		log:         log,
		graph:       g,
		clock:       opts.Clock,
		author:      opts.Author,
		extractor:   opts.Extractor,
		loadCorrupt: report.Corrupt,
		loadReport:  projection,
	}, nil
}

// Graph exposes the projected graph for read-only queries.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Log exposes the event log, primarily for the check and sync paths.
func (e *Engine) Log() *eventlog.Log { return e.log }

// Resolve maps an id prefix to a full artifact id: an exact match wins
// outright, a unique prefix resolves, an ambiguous prefix fails with
// the candidate list.
func (e *Engine) Resolve(prefix string) (string, error) {
	return ident.Resolve(prefix, e.graph.NodeIDs())
}

// allocator returns an allocator whose collision check spans every id
// visible to this process: artifact ids and event ids in both scopes.
func (e *Engine) allocator() *ident.Allocator {
	return ident.NewAllocator(func(id string) bool {
		return e.graph.HasNode(id) || e.graph.Applied(id)
	})
}

// appendAndApply is the single write path: allocate an event id, stamp
// the clock, append durably, fold into the graph. Operations pre-check
// their graph preconditions before calling this, so a post-append
// rejection indicates an integrity problem rather than a routine
// validation failure.
func (e *Engine) appendAndApply(t model.EventType, scope model.Scope, causes string, p model.Payload) (model.Event, error) {
	id, err := e.allocator().Allocate()
	if err != nil {
		return model.Event{}, err
	}

	ev := model.Event{
		ID:        id,
		Type:      t,
		Scope:     scope,
		Timestamp: e.clock.Now().UTC(),
		Author:    e.author,
		Causes:    causes,
		Payload:   p,
	}
	if _, err := e.log.Append(ev); err != nil {
		return model.Event{}, err
	}
	if err := e.graph.Apply(ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}
