// Package extract defines the interface to the natural-language
// extraction/synthesis service. The service is an injected capability:
// the engine never invokes network I/O itself and must function with
// the service absent, falling back to raw capture.
package extract

import (
	"context"
	"errors"

	"github.com/loamdev/loam/internal/model"
)

// ErrUnavailable is returned by the no-op service. Callers fall back to
// raw capture or skip synthesis; it is never a bug.
var ErrUnavailable = errors.New("extraction service unavailable")

// Proposal is one structured artifact the service proposes from free
// text. Domain is an opaque classifier label the engine stores without
// interpreting.
type Proposal struct {
	Kind       model.ArtifactKind
	Content    string
	Domain     string
	Confidence float64 // 0..1
}

// Answer is a synthesized prose response with the artifact ids it cites.
type Answer struct {
	Prose    string
	CitedIDs []string
}

// Service turns free text into proposed artifacts and a graph subset
// into prose. Implementations live outside this repository; the engine
// only consumes the interface.
type Service interface {
	Extract(ctx context.Context, text string) ([]Proposal, error)
	Synthesize(ctx context.Context, query string, candidates []*model.Artifact) (Answer, error)
}

// Noop is the raw-capture default. Extract proposes nothing, pushing
// the caller onto the unstructured-memo path; Synthesize reports the
// service unavailable.
type Noop struct{}

// NewNoop returns the default no-op service.
func NewNoop() Noop { return Noop{} }

func (Noop) Extract(ctx context.Context, text string) ([]Proposal, error) {
	return nil, nil
}

func (Noop) Synthesize(ctx context.Context, query string, candidates []*model.Artifact) (Answer, error) {
	return Answer{}, ErrUnavailable
}

var _ Service = Noop{}
