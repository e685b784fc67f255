package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/metta/pkg/domain"
)

// Renderer prints outcomes and loop notices.
type Renderer interface {
	Outcome(w io.Writer, out domain.Outcome)
	Notice(w io.Writer, msg string)
}

// Notices printed for interrupted evaluations.
const (
	MsgCancelled = "Interrupted."
	MsgAbandoned = "cancellation requested, engine will finish in background"
	MsgWaiting   = "waiting for the previous evaluation to finish"
)

// Styles decorates rendered text. Nil fields print text unchanged.
type Styles struct {
	Value     func(string) string
	Error     func(string) string
	Interrupt func(string) string
	Notice    func(string) string
}

func apply(style func(string) string, s string) string {
	if style == nil {
		return s
	}
	return style(s)
}

// TextRenderer prints outcomes the way the reference shell does: the results
// of each executed expression as one bracketed line.
type TextRenderer struct {
	Styles Styles
}

func (t *TextRenderer) Outcome(w io.Writer, out domain.Outcome) {
	switch out.Kind {
	case domain.OutcomeValues:
		for _, values := range out.Results {
			fmt.Fprintln(w, apply(t.Styles.Value, FormatResult(values)))
		}
	case domain.OutcomeError:
		fmt.Fprintln(w, apply(t.Styles.Error, FormatError(out.Err)))
	case domain.OutcomeCancelled:
		fmt.Fprintln(w, apply(t.Styles.Interrupt, MsgCancelled))
	case domain.OutcomeAbandoned:
		fmt.Fprintln(w, apply(t.Styles.Interrupt, MsgAbandoned))
	case domain.OutcomeFatal:
		fmt.Fprintln(w, apply(t.Styles.Error, fmt.Sprintf("fatal: %v", out.Fatal)))
	}
}

func (t *TextRenderer) Notice(w io.Writer, msg string) {
	if msg == "" {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, apply(t.Styles.Notice, msg))
}

// FormatResult renders the values of one executed expression.
func FormatResult(values []string) string {
	return "[" + strings.Join(values, ", ") + "]"
}

// FormatError renders an engine error with its location when known.
func FormatError(err *domain.EngineError) string {
	if err == nil {
		return "error"
	}
	if err.Location != nil {
		return fmt.Sprintf("error at %s: %s", err.Location, err.Message)
	}
	return "error: " + err.Message
}
