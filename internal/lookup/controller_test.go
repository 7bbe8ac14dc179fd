package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"dictionary/app/internal/dictionary"
)

func TestNewControllerRequiresLookuper(t *testing.T) {
	t.Parallel()

	if _, err := NewController(Options{}); err == nil {
		t.Fatalf("expected error when lookuper is nil")
	}
}

func TestNewControllerRejectsUnknownOrdering(t *testing.T) {
	t.Parallel()

	if _, err := NewController(Options{Lookuper: &scriptedLookuper{}, Ordering: "random"}); err == nil {
		t.Fatalf("expected error for unknown ordering")
	}
}

func TestParseOrdering(t *testing.T) {
	t.Parallel()

	cases := map[string]Ordering{
		"":            LastCompletionWins,
		"completion":  LastCompletionWins,
		"INITIATION ": LastInitiatedWins,
	}
	for input, want := range cases {
		got, err := ParseOrdering(input)
		if err != nil {
			t.Fatalf("ParseOrdering(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseOrdering(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseOrdering("fifo"); err == nil {
		t.Fatalf("expected error for unknown ordering")
	}
}

func TestInitialStateRendersNothing(t *testing.T) {
	t.Parallel()

	ctrl := newTestController(t, &scriptedLookuper{}, LastCompletionWins, nil)

	state := ctrl.State()
	if state.Word != "" || state.Loading || state.Result != nil || state.Err != nil {
		t.Fatalf("expected empty initial state, got %#v", state)
	}
	if view := ctrl.View(); view.Kind != ViewEmpty || view.Text != "" {
		t.Fatalf("expected empty view, got %#v", view)
	}
}

func TestUpdateWordReplacesWordWithoutValidation(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("  spaced / word ")
	if got := ctrl.State().Word; got != "  spaced / word " {
		t.Fatalf("expected word to be stored as-is, got %q", got)
	}

	ctrl.UpdateWord("")
	<-ctrl.Search(context.Background())

	if words := lookuper.Words(); len(words) != 1 || words[0] != "" {
		t.Fatalf("expected empty word to be forwarded, got %#v", words)
	}
}

func TestSearchRendersFirstDefinition(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{outcomes: map[string]dictionary.Outcome{
		"d": successOutcome(t, "d", `[{"meanings":[{"definitions":[{"definition":"D"}]}]}]`),
	}}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("d")
	<-ctrl.Search(context.Background())

	if view := ctrl.View(); view.Kind != ViewDefinition || view.Text != "D" {
		t.Fatalf("expected definition D, got %#v", view)
	}
	if state := ctrl.State(); state.Loading || state.Err != nil {
		t.Fatalf("expected loading cleared and no error, got %#v", state)
	}
}

func TestSearchEmptyEntriesRendersFallback(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{outcomes: map[string]dictionary.Outcome{
		"none": successOutcome(t, "none", `[]`),
	}}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("none")
	<-ctrl.Search(context.Background())

	if view := ctrl.View(); view.Kind != ViewDefinition || view.Text != "No definition found" {
		t.Fatalf("expected fallback definition, got %#v", view)
	}
}

func TestSearchServiceErrorRendersMessageAndKeepsStaleResult(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{outcomes: map[string]dictionary.Outcome{
		"good": successOutcome(t, "good", `[{"meanings":[{"definitions":[{"definition":"fine"}]}]}]`),
		"bad":  {Word: "bad", Failure: &dictionary.Failure{Kind: dictionary.ServiceFailure, StatusCode: 404, Message: "No Definitions Found"}},
	}}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("good")
	<-ctrl.Search(context.Background())
	ctrl.UpdateWord("bad")
	<-ctrl.Search(context.Background())

	state := ctrl.State()
	if state.Result == nil {
		t.Fatalf("expected stale result to remain set")
	}
	if view := ctrl.View(); view.Kind != ViewError || view.Text != "No Definitions Found" {
		t.Fatalf("expected service error message, got %#v", view)
	}
}

func TestSearchTransportFailureWithoutMessageRendersFallback(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{outcomes: map[string]dictionary.Outcome{
		"x": {Word: "x", Failure: &dictionary.Failure{Kind: dictionary.TransportFailure}},
	}}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("x")
	<-ctrl.Search(context.Background())

	if view := ctrl.View(); view.Kind != ViewError || view.Text != "An error occurred" {
		t.Fatalf("expected error fallback, got %#v", view)
	}
}

func TestSearchClearsErrorWhenStarted(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	lookuper := &scriptedLookuper{
		outcomes: map[string]dictionary.Outcome{
			"bad":  {Word: "bad", Failure: &dictionary.Failure{Kind: dictionary.ServiceFailure, Message: "nope"}},
			"slow": successOutcome(t, "slow", `[]`),
		},
		gates: map[string]chan struct{}{"slow": release},
	}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("bad")
	<-ctrl.Search(context.Background())

	ctrl.UpdateWord("slow")
	done := ctrl.Search(context.Background())

	state := ctrl.State()
	if !state.Loading || state.Err != nil {
		t.Fatalf("expected loading with cleared error, got %#v", state)
	}

	close(release)
	<-done
}

func TestLoadingViewHidesStaleResultAndError(t *testing.T) {
	t.Parallel()

	stale := &dictionary.Payload{Entries: []dictionary.Entry{{Meanings: []dictionary.Meaning{{Definitions: []dictionary.Definition{{Definition: "old"}}}}}}}
	states := []State{
		{Loading: true},
		{Loading: true, Result: stale},
		{Loading: true, Err: &dictionary.Failure{Kind: dictionary.ServiceFailure, Message: "old error"}},
		{Loading: true, Result: stale, Err: &dictionary.Failure{Kind: dictionary.TransportFailure}},
	}

	for i, state := range states {
		if view := Render(state); view.Kind != ViewLoading || view.Text != "" {
			t.Fatalf("state %d: expected loading view, got %#v", i, view)
		}
	}
}

func TestLastCompletionWinsAppliesLateFirstSearch(t *testing.T) {
	t.Parallel()

	gateFirst := make(chan struct{})
	gateSecond := make(chan struct{})
	lookuper := &scriptedLookuper{
		outcomes: map[string]dictionary.Outcome{
			"first":  successOutcome(t, "first", `[{"meanings":[{"definitions":[{"definition":"one"}]}]}]`),
			"second": successOutcome(t, "second", `[{"meanings":[{"definitions":[{"definition":"two"}]}]}]`),
		},
		gates: map[string]chan struct{}{"first": gateFirst, "second": gateSecond},
	}
	recorder := &recordingRecorder{}
	ctrl := newTestController(t, lookuper, LastCompletionWins, recorder)

	ctrl.UpdateWord("first")
	firstDone := ctrl.Search(context.Background())
	ctrl.UpdateWord("second")
	secondDone := ctrl.Search(context.Background())

	close(gateSecond)
	<-secondDone

	if view := ctrl.View(); view.Text != "two" {
		t.Fatalf("expected second result after its completion, got %#v", view)
	}

	close(gateFirst)
	<-firstDone

	if view := ctrl.View(); view.Kind != ViewDefinition || view.Text != "one" {
		t.Fatalf("expected chronologically last completion to win, got %#v", view)
	}
	if ctrl.State().Loading {
		t.Fatalf("expected loading to be cleared")
	}
	if got := recorder.Words(); len(got) != 2 || got[0] != "second" || got[1] != "first" {
		t.Fatalf("expected both completions recorded in arrival order, got %#v", got)
	}
}

func TestLastCompletionWinsLateSuccessReplacesEarlierFailure(t *testing.T) {
	t.Parallel()

	gateFirst := make(chan struct{})
	gateSecond := make(chan struct{})
	lookuper := &scriptedLookuper{
		outcomes: map[string]dictionary.Outcome{
			"first":  successOutcome(t, "first", `[{"meanings":[{"definitions":[{"definition":"one"}]}]}]`),
			"second": {Word: "second", Failure: &dictionary.Failure{Kind: dictionary.ServiceFailure, StatusCode: 404, Message: "No Definitions Found"}},
		},
		gates: map[string]chan struct{}{"first": gateFirst, "second": gateSecond},
	}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("first")
	firstDone := ctrl.Search(context.Background())
	ctrl.UpdateWord("second")
	secondDone := ctrl.Search(context.Background())

	close(gateSecond)
	<-secondDone

	if view := ctrl.View(); view.Kind != ViewError || view.Text != "No Definitions Found" {
		t.Fatalf("expected failure after its completion, got %#v", view)
	}

	close(gateFirst)
	<-firstDone

	if view := ctrl.View(); view != (View{Kind: ViewDefinition, Text: "one"}) {
		t.Fatalf("expected late success to win over earlier failure, got %#v", view)
	}
	if ctrl.State().Err != nil {
		t.Fatalf("expected error to be cleared by the later success")
	}
}

func TestLastCompletionWinsLateFailureReplacesEarlierSuccess(t *testing.T) {
	t.Parallel()

	gateFirst := make(chan struct{})
	gateSecond := make(chan struct{})
	lookuper := &scriptedLookuper{
		outcomes: map[string]dictionary.Outcome{
			"first":  {Word: "first", Failure: &dictionary.Failure{Kind: dictionary.ServiceFailure, StatusCode: 404, Message: "No Definitions Found"}},
			"second": successOutcome(t, "second", `[{"meanings":[{"definitions":[{"definition":"two"}]}]}]`),
		},
		gates: map[string]chan struct{}{"first": gateFirst, "second": gateSecond},
	}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("first")
	firstDone := ctrl.Search(context.Background())
	ctrl.UpdateWord("second")
	secondDone := ctrl.Search(context.Background())

	close(gateSecond)
	<-secondDone

	if view := ctrl.View(); view != (View{Kind: ViewDefinition, Text: "two"}) {
		t.Fatalf("expected success after its completion, got %#v", view)
	}

	close(gateFirst)
	<-firstDone

	if view := ctrl.View(); view != (View{Kind: ViewError, Text: "No Definitions Found"}) {
		t.Fatalf("expected late failure to win over earlier success, got %#v", view)
	}
	if ctrl.State().Result == nil {
		t.Fatalf("expected the stale result to stay behind the error")
	}
}

func TestNullSuccessClearsDisplayedDefinition(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{outcomes: map[string]dictionary.Outcome{
		"rock": successOutcome(t, "rock", `[{"meanings":[{"definitions":[{"definition":"stone"}]}]}]`),
		"void": {Word: "void"},
	}}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("rock")
	<-ctrl.Search(context.Background())
	ctrl.UpdateWord("void")
	<-ctrl.Search(context.Background())

	if view := ctrl.View(); view.Kind != ViewEmpty {
		t.Fatalf("expected nothing rendered after a null success, got %#v", view)
	}
}

func TestLastCompletionWinsFirstCompletionClearsLoading(t *testing.T) {
	t.Parallel()

	gateSecond := make(chan struct{})
	lookuper := &scriptedLookuper{
		outcomes: map[string]dictionary.Outcome{
			"first":  successOutcome(t, "first", `[]`),
			"second": successOutcome(t, "second", `[]`),
		},
		gates: map[string]chan struct{}{"second": gateSecond},
	}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("second")
	secondDone := ctrl.Search(context.Background())
	ctrl.UpdateWord("first")
	<-ctrl.Search(context.Background())

	if ctrl.State().Loading {
		t.Fatalf("expected any completion to clear loading")
	}

	close(gateSecond)
	<-secondDone
}

func TestLastInitiatedWinsDiscardsSupersededCompletion(t *testing.T) {
	t.Parallel()

	gateFirst := make(chan struct{})
	gateSecond := make(chan struct{})
	lookuper := &scriptedLookuper{
		outcomes: map[string]dictionary.Outcome{
			"first":  successOutcome(t, "first", `[{"meanings":[{"definitions":[{"definition":"one"}]}]}]`),
			"second": {Word: "second", Failure: &dictionary.Failure{Kind: dictionary.ServiceFailure, Message: "No Definitions Found"}},
		},
		gates: map[string]chan struct{}{"first": gateFirst, "second": gateSecond},
	}
	recorder := &recordingRecorder{}
	ctrl := newTestController(t, lookuper, LastInitiatedWins, recorder)

	ctrl.UpdateWord("first")
	firstDone := ctrl.Search(context.Background())
	ctrl.UpdateWord("second")
	secondDone := ctrl.Search(context.Background())

	close(gateFirst)
	<-firstDone

	if view := ctrl.View(); view.Kind != ViewLoading {
		t.Fatalf("expected superseded completion to leave loading in place, got %#v", view)
	}

	close(gateSecond)
	<-secondDone

	if view := ctrl.View(); view.Kind != ViewError || view.Text != "No Definitions Found" {
		t.Fatalf("expected last initiated search to win, got %#v", view)
	}
	if ctrl.State().Result != nil {
		t.Fatalf("expected discarded result to never be applied")
	}
	if got := recorder.Words(); len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected only the applied completion to be recorded, got %#v", got)
	}
}

func TestSearchIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{outcomes: map[string]dictionary.Outcome{
		"w": successOutcome(t, "w", `[]`),
	}}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ctrl.UpdateWord("w")
	done := ctrl.Search(ctx)
	cancel()
	<-done

	if lookuper.sawCancelled() {
		t.Fatalf("expected lookup context to be detached from caller cancellation")
	}
	if view := ctrl.View(); view.Kind != ViewDefinition {
		t.Fatalf("expected search to complete, got %#v", view)
	}
}

func TestRecorderErrorDoesNotAffectState(t *testing.T) {
	t.Parallel()

	lookuper := &scriptedLookuper{outcomes: map[string]dictionary.Outcome{
		"w": successOutcome(t, "w", `[{"meanings":[{"definitions":[{"definition":"ok"}]}]}]`),
	}}
	recorder := &recordingRecorder{err: errors.New("disk full")}
	ctrl := newTestController(t, lookuper, LastCompletionWins, recorder)

	ctrl.UpdateWord("w")
	<-ctrl.Search(context.Background())

	if view := ctrl.View(); view.Text != "ok" {
		t.Fatalf("expected definition despite recorder error, got %#v", view)
	}
}

func TestWaitBlocksUntilSearchesComplete(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	lookuper := &scriptedLookuper{
		outcomes: map[string]dictionary.Outcome{"w": successOutcome(t, "w", `[]`)},
		gates:    map[string]chan struct{}{"w": gate},
	}
	ctrl := newTestController(t, lookuper, LastCompletionWins, nil)

	ctrl.UpdateWord("w")
	ctrl.Search(context.Background())

	waited := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatalf("expected Wait to block while search is outstanding")
	case <-time.After(20 * time.Millisecond):
	}

	close(gate)
	<-waited
}

// helpers

func newTestController(t *testing.T, lookuper dictionary.Lookuper, ordering Ordering, recorder Recorder) *Controller {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := Options{Lookuper: lookuper, Ordering: ordering, Logger: logger}
	if recorder != nil {
		opts.Recorder = recorder
	}

	ctrl, err := NewController(opts)
	if err != nil {
		t.Fatalf("NewController returned error: %v", err)
	}
	return ctrl
}

func successOutcome(t *testing.T, word, body string) dictionary.Outcome {
	t.Helper()

	var entries []dictionary.Entry
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return dictionary.Outcome{Word: word, Payload: &dictionary.Payload{Raw: json.RawMessage(body), Entries: entries}}
}

// stubs

type scriptedLookuper struct {
	outcomes map[string]dictionary.Outcome
	gates    map[string]chan struct{}

	mu        sync.Mutex
	words     []string
	cancelled bool
}

func (s *scriptedLookuper) Lookup(ctx context.Context, word string) dictionary.Outcome {
	s.mu.Lock()
	s.words = append(s.words, word)
	gate := s.gates[word]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		s.cancelled = true
	}
	s.mu.Unlock()

	if outcome, ok := s.outcomes[word]; ok {
		return outcome
	}
	return dictionary.Outcome{Word: word, Failure: &dictionary.Failure{Kind: dictionary.ServiceFailure, StatusCode: 404}}
}

func (s *scriptedLookuper) Words() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.words...)
}

func (s *scriptedLookuper) sawCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

type recordingRecorder struct {
	err error

	mu          sync.Mutex
	completions []Completion
}

func (r *recordingRecorder) RecordLookup(_ context.Context, completion Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, completion)
	return r.err
}

func (r *recordingRecorder) Words() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	words := make([]string, 0, len(r.completions))
	for _, completion := range r.completions {
		words = append(words, completion.Word)
	}
	return words
}

var (
	_ dictionary.Lookuper = (*scriptedLookuper)(nil)
	_ Recorder            = (*recordingRecorder)(nil)
)
