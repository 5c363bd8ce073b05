package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/loamdev/loam/internal/model"
)

// artifactView is the JSON shape of an artifact in CLI output. It is a
// presentation type: the projected model stays internal.
type artifactView struct {
	ID           string            `json:"id"`
	Kind         string            `json:"kind"`
	Scope        string            `json:"scope"`
	Content      string            `json:"content"`
	Domain       string            `json:"domain,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Author       string            `json:"author,omitempty"`
	Validation   string            `json:"validation"`
	Endorsements int               `json:"endorsements,omitempty"`
	Evidence     []string          `json:"evidence,omitempty"`
	Deprecated   bool              `json:"deprecated,omitempty"`
	SupersededBy string            `json:"superseded_by,omitempty"`
	Tension      *tensionView      `json:"tension,omitempty"`
	Spec         *model.SpecFields `json:"spec,omitempty"`
}

type tensionView struct {
	Target     string   `json:"target"`
	State      string   `json:"state"`
	Outcome    string   `json:"outcome,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
}

type edgeView struct {
	EventID string `json:"event_id"`
	From    string `json:"from"`
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Scope   string `json:"scope"`
}

func viewOf(a *model.Artifact) artifactView {
	v := artifactView{
		ID:           a.ID,
		Kind:         string(a.Kind),
		Scope:        string(a.Scope),
		Content:      a.Content,
		Domain:       a.Domain,
		CreatedAt:    a.CreatedAt,
		Author:       a.Author,
		Validation:   string(a.Validation()),
		Endorsements: a.Endorsements,
		Evidence:     a.Evidence,
		Deprecated:   a.Deprecated,
		SupersededBy: a.SupersededBy,
		Spec:         a.Spec,
	}
	if t := a.Tension; t != nil {
		v.Tension = &tensionView{
			Target:     t.Target,
			State:      string(t.State),
			Outcome:    string(t.Outcome),
			Resolution: t.Resolution,
			Evidence:   t.Evidence,
		}
	}
	return v
}

func artifactViews(artifacts []*model.Artifact) []artifactView {
	views := make([]artifactView, 0, len(artifacts))
	for _, a := range artifacts {
		views = append(views, viewOf(a))
	}
	return views
}

func viewOfEdge(e model.Edge) edgeView {
	return edgeView{
		EventID: e.EventID,
		From:    e.From,
		Kind:    string(e.Kind),
		To:      e.To,
		Scope:   string(e.Scope),
	}
}

// writeArtifact renders the full text view of one artifact.
func writeArtifact(w io.Writer, a *model.Artifact) {
	fmt.Fprintf(w, "%s  %s  [%s]  %s\n", a.ID, a.Kind, a.Validation(), string(a.Scope))
	fmt.Fprintf(w, "  %s\n", a.Content)
	if a.Domain != "" {
		fmt.Fprintf(w, "  domain: %s\n", a.Domain)
	}
	if a.Endorsements > 0 {
		fmt.Fprintf(w, "  endorsements: %d\n", a.Endorsements)
	}
	for _, ev := range a.Evidence {
		fmt.Fprintf(w, "  evidence: %s\n", ev)
	}
	if a.Deprecated {
		fmt.Fprintf(w, "  deprecated")
		if a.DeprecationReason != "" {
			fmt.Fprintf(w, ": %s", a.DeprecationReason)
		}
		if a.SupersededBy != "" {
			fmt.Fprintf(w, " (superseded by %s)", a.SupersededBy)
		}
		fmt.Fprintln(w)
	}
	if t := a.Tension; t != nil {
		fmt.Fprintf(w, "  challenges: %s  state: %s", t.Target, t.State)
		if t.Outcome != "" {
			fmt.Fprintf(w, "  outcome: %s", t.Outcome)
		}
		fmt.Fprintln(w)
		if t.Resolution != "" {
			fmt.Fprintf(w, "  resolution: %s\n", t.Resolution)
		}
		for _, ev := range t.Evidence {
			fmt.Fprintf(w, "  evidence: %s\n", ev)
		}
	}
}
