package history

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"dictionary/app/internal/db"
	"dictionary/app/internal/dictionary"
	"dictionary/app/internal/lookup"
)

func TestNewRepositoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestCreateValidatesRecord(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	if err := repo.Create(ctx, nil); err == nil {
		t.Fatalf("expected error for nil record")
	}
	if err := repo.Create(ctx, &Record{SessionID: " ", Outcome: OutcomeDefinition}); err == nil {
		t.Fatalf("expected error for blank session id")
	}
	if err := repo.Create(ctx, &Record{SessionID: "s"}); err == nil {
		t.Fatalf("expected error for missing outcome")
	}
}

func TestRecentReturnsNewestFirstPerSession(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	records := []Record{
		{SessionID: "alpha", Word: "one", Outcome: OutcomeDefinition, Text: "first", CreatedAt: base},
		{SessionID: "beta", Word: "other", Outcome: OutcomeDefinition, Text: "elsewhere", CreatedAt: base.Add(time.Minute)},
		{SessionID: "alpha", Word: "two", Outcome: OutcomeServiceError, Text: "No Definitions Found", StatusCode: 404, CreatedAt: base.Add(2 * time.Minute)},
		{SessionID: "alpha", Word: "three", Outcome: OutcomeTransportError, Text: "An error occurred", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range records {
		if err := repo.Create(ctx, &records[i]); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	recent, err := repo.Recent(ctx, "alpha", 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Word != "three" || recent[1].Word != "two" {
		t.Fatalf("expected newest first, got %q then %q", recent[0].Word, recent[1].Word)
	}
	if recent[1].StatusCode != 404 || recent[1].Outcome != OutcomeServiceError {
		t.Fatalf("expected service error fields to round trip, got %#v", recent[1])
	}

	all, err := repo.Recent(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected default limit to return all 3 alpha records, got %d", len(all))
	}
}

func TestRecentRequiresSession(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	if _, err := repo.Recent(context.Background(), "", 5); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestSessionRecorderClassifiesOutcomes(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	recorder, err := NewSessionRecorder(repo, "session-1")
	if err != nil {
		t.Fatalf("NewSessionRecorder returned error: %v", err)
	}

	completions := []lookup.Completion{
		{
			Word:    "hello",
			Outcome: dictionary.Outcome{Word: "hello", Payload: &dictionary.Payload{}},
			View:    lookup.View{Kind: lookup.ViewDefinition, Text: "No definition found"},
		},
		{
			Word:    "qwxz",
			Outcome: dictionary.Outcome{Word: "qwxz", Failure: &dictionary.Failure{Kind: dictionary.ServiceFailure, StatusCode: 404, Message: "No Definitions Found"}},
			View:    lookup.View{Kind: lookup.ViewError, Text: "No Definitions Found"},
		},
		{
			Word:    "offline",
			Outcome: dictionary.Outcome{Word: "offline", Failure: &dictionary.Failure{Kind: dictionary.TransportFailure}},
			View:    lookup.View{Kind: lookup.ViewError, Text: "An error occurred"},
		},
	}
	for _, completion := range completions {
		if err := recorder.RecordLookup(ctx, completion); err != nil {
			t.Fatalf("RecordLookup returned error: %v", err)
		}
	}

	recent, err := repo.Recent(ctx, "session-1", 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}

	got := map[string]Record{}
	for _, record := range recent {
		got[record.Word] = record
	}

	if got["hello"].Outcome != OutcomeDefinition || got["hello"].Text != "No definition found" {
		t.Fatalf("unexpected definition record %#v", got["hello"])
	}
	if got["qwxz"].Outcome != OutcomeServiceError || got["qwxz"].StatusCode != 404 {
		t.Fatalf("unexpected service error record %#v", got["qwxz"])
	}
	if got["offline"].Outcome != OutcomeTransportError || got["offline"].Text != "An error occurred" {
		t.Fatalf("unexpected transport error record %#v", got["offline"])
	}
}

func TestNewSessionRecorderValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewSessionRecorder(nil, "s"); err == nil {
		t.Fatalf("expected error for nil repository")
	}
	if _, err := NewSessionRecorder(setupRepository(t), ""); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func setupRepository(t *testing.T) *GormRepository {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	database, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "history.db"), Logger: logger})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})

	if err := Migrate(context.Background(), database, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := NewRepository(database, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	return repo
}
