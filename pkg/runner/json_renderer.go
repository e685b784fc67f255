package runner

import (
	"encoding/json"
	"io"

	"github.com/aretw0/metta/pkg/domain"
)

// JSONRenderer writes one JSON object per outcome or notice (JSON Lines), for
// scripts driving the shell through a pipe.
type JSONRenderer struct{}

// JSONEvent is the shape of each line written by JSONRenderer.
type JSONEvent struct {
	Kind       string              `json:"kind"`
	Results    [][]string          `json:"results,omitempty"`
	Error      *domain.EngineError `json:"error,omitempty"`
	Message    string              `json:"message,omitempty"`
	DurationMS int64               `json:"duration_ms,omitempty"`
}

func (JSONRenderer) Outcome(w io.Writer, out domain.Outcome) {
	ev := JSONEvent{
		Kind:       string(out.Kind),
		Results:    out.Results,
		Error:      out.Err,
		DurationMS: out.Duration.Milliseconds(),
	}
	switch out.Kind {
	case domain.OutcomeCancelled:
		ev.Message = MsgCancelled
	case domain.OutcomeAbandoned:
		ev.Message = MsgAbandoned
	case domain.OutcomeFatal:
		if out.Fatal != nil {
			ev.Message = out.Fatal.Error()
		}
	}
	_ = json.NewEncoder(w).Encode(ev)
}

// Notice skips empty notices; they only move the cursor in a terminal.
func (JSONRenderer) Notice(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	_ = json.NewEncoder(w).Encode(JSONEvent{Kind: "notice", Message: msg})
}
