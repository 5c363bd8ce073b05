// Package model defines the core data types of the decision graph:
// events, artifacts, edges, and the closed enums that classify them.
//
// Events are the only source of truth. Everything else, from artifact
// nodes and edges to validation states and tension lifecycles, is a
// deterministic projection of the event log and can be rebuilt from it
// at any time.
//
// The types here are deliberately closed: artifact kinds, edge kinds,
// event types, and tension outcomes are fixed enums that are exhaustively
// matched wherever behavior differs. Unknown values are rejected at
// decode time rather than discovered at use time.
package model
