package lookup

import "dictionary/app/internal/dictionary"

// ViewKind names what the result region shows.
type ViewKind string

const (
	ViewEmpty      ViewKind = "empty"
	ViewLoading    ViewKind = "loading"
	ViewError      ViewKind = "error"
	ViewDefinition ViewKind = "definition"
)

// View is the content of the result region derived from a State.
type View struct {
	Kind ViewKind `json:"kind"`
	Text string   `json:"text,omitempty"`
}

// Render applies the display precedence: loading, then error, then result, then nothing.
func Render(state State) View {
	switch {
	case state.Loading:
		return View{Kind: ViewLoading}
	case state.Err != nil:
		return View{Kind: ViewError, Text: state.Err.DisplayMessage()}
	case state.Result != nil:
		return View{Kind: ViewDefinition, Text: state.Result.DisplayText()}
	default:
		return View{Kind: ViewEmpty}
	}
}

func renderOutcome(outcome dictionary.Outcome) View {
	return Render(State{Result: outcome.Payload, Err: outcome.Failure})
}
