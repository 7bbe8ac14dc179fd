// Package lookup owns the query state of a dictionary page and the search state machine driving it.
package lookup

import (
	"context"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"dictionary/app/internal/dictionary"
	applog "dictionary/app/internal/log"
)

// Ordering decides which of several overlapping searches determines the final state.
type Ordering string

const (
	// LastCompletionWins applies every completion in arrival order.
	LastCompletionWins Ordering = "completion"
	// LastInitiatedWins discards completions of searches that were superseded before they finished.
	LastInitiatedWins Ordering = "initiation"
)

// ParseOrdering validates an ordering name. Empty selects LastCompletionWins.
func ParseOrdering(value string) (Ordering, error) {
	switch Ordering(strings.ToLower(strings.TrimSpace(value))) {
	case "", LastCompletionWins:
		return LastCompletionWins, nil
	case LastInitiatedWins:
		return LastInitiatedWins, nil
	default:
		return "", eris.Errorf("unknown search ordering: %s", value)
	}
}

// State is a snapshot of the query: the word being edited, the in-flight flag and the last
// result and error. Result may be stale while Err is set; Render never shows it then.
type State struct {
	Word    string
	Loading bool
	Result  *dictionary.Payload
	Err     *dictionary.Failure
}

// Completion describes a finished search that was applied to the state.
type Completion struct {
	Sequence uint64
	Word     string
	Outcome  dictionary.Outcome
	View     View
}

// Recorder receives every applied completion.
type Recorder interface {
	RecordLookup(ctx context.Context, completion Completion) error
}

// Options configures a Controller.
type Options struct {
	Lookuper  dictionary.Lookuper
	Ordering  Ordering
	Recorder  Recorder
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

// Controller owns one QueryState and issues one outbound lookup per Search.
type Controller struct {
	lookuper  dictionary.Lookuper
	ordering  Ordering
	recorder  Recorder
	logger    *logrus.Logger
	sentryHub *sentry.Hub

	mu     sync.Mutex
	state  State
	latest uint64

	inflight sync.WaitGroup
}

// NewController constructs a controller with an empty state.
func NewController(opts Options) (*Controller, error) {
	if opts.Lookuper == nil {
		return nil, eris.New("dictionary lookuper is required")
	}

	ordering := opts.Ordering
	if ordering == "" {
		ordering = LastCompletionWins
	}
	if ordering != LastCompletionWins && ordering != LastInitiatedWins {
		return nil, eris.Errorf("unknown search ordering: %s", ordering)
	}

	return &Controller{
		lookuper:  opts.Lookuper,
		ordering:  ordering,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		sentryHub: opts.SentryHub,
	}, nil
}

// UpdateWord replaces the word used by the next search.
func (c *Controller) UpdateWord(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Word = text
}

// Search starts a lookup of the current word and returns a channel that is closed once the
// outcome has been applied or discarded. The lookup keeps the values of ctx but not its
// cancellation: an outstanding search cannot be aborted.
func (c *Controller) Search(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	c.latest++
	sequence := c.latest
	word := c.state.Word
	c.state.Loading = true
	c.state.Err = nil
	c.mu.Unlock()

	c.logDebug(logrus.Fields{"word": word, "sequence": sequence}, "search started")

	done := make(chan struct{})
	detached := context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer close(done)

		outcome := c.lookuper.Lookup(detached, word)
		c.complete(detached, sequence, outcome)
	}()

	return done
}

// Wait blocks until every started search has completed.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// View renders the current state.
func (c *Controller) View() View {
	return Render(c.State())
}

func (c *Controller) complete(ctx context.Context, sequence uint64, outcome dictionary.Outcome) {
	c.mu.Lock()
	if c.ordering == LastInitiatedWins && sequence != c.latest {
		latest := c.latest
		c.mu.Unlock()
		c.logDebug(logrus.Fields{"word": outcome.Word, "sequence": sequence, "latest": latest}, "discarding superseded search")
		return
	}

	if outcome.Failure != nil {
		c.state.Err = outcome.Failure
	} else {
		// An overlapping search may have set Err after this one started.
		c.state.Result = outcome.Payload
		c.state.Err = nil
	}
	c.state.Loading = false
	c.mu.Unlock()

	completion := Completion{
		Sequence: sequence,
		Word:     outcome.Word,
		Outcome:  outcome,
		View:     renderOutcome(outcome),
	}

	c.logCompletion(completion)

	if outcome.Failure != nil && outcome.Failure.Kind == dictionary.TransportFailure {
		applog.CaptureException(ctx, c.sentryHub, outcome.Failure)
	}

	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordLookup(ctx, completion); err != nil {
		if c.logger != nil {
			c.logger.WithField("error", err.Error()).WithField("word", completion.Word).Error("recording lookup")
		}
		applog.CaptureException(ctx, c.sentryHub, err)
	}
}

func (c *Controller) logCompletion(completion Completion) {
	if c.logger == nil {
		return
	}

	fields := logrus.Fields{
		"word":        completion.Word,
		"sequence":    completion.Sequence,
		"view":        completion.View.Kind,
		"duration_ms": float64(completion.Outcome.Duration.Microseconds()) / 1000,
	}

	failure := completion.Outcome.Failure
	switch {
	case failure == nil:
		c.logger.WithFields(fields).Info("search completed")
	case failure.Kind == dictionary.ServiceFailure:
		fields["status"] = failure.StatusCode
		c.logger.WithFields(fields).Info("search answered with service error")
	default:
		fields["error"] = failure.Error()
		c.logger.WithFields(fields).Warn("search failed")
	}
}

func (c *Controller) logDebug(fields logrus.Fields, message string) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(fields).Debug(message)
}
