package history

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dictionary/app/internal/dictionary"
	"dictionary/app/internal/lookup"
)

const defaultRecentLimit = 5

// Repository defines persistence operations for lookup history.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	Recent(ctx context.Context, sessionID string, limit int) ([]Record, error)
}

// GormRepository persists lookup records using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ Repository = (*GormRepository)(nil)

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

// Create stores a lookup record.
func (r *GormRepository) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return eris.New("record is nil")
	}

	record.SessionID = strings.TrimSpace(record.SessionID)
	if record.SessionID == "" {
		return eris.New("record session id is required")
	}
	if record.Outcome == "" {
		return eris.New("record outcome is required")
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		r.logError(logrus.Fields{"session_id": record.SessionID, "word": record.Word}, err, "saving lookup record")
		return eris.Wrapf(err, "saving lookup record: %s", record.Word)
	}

	return nil
}

// Recent returns the newest records of a session, newest first.
func (r *GormRepository) Recent(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return nil, eris.New("session id is required")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var records []Record
	err := r.db.WithContext(ctx).
		Where("session_id = ?", trimmed).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		r.logError(logrus.Fields{"session_id": trimmed}, err, "listing recent lookups")
		return nil, eris.Wrap(err, "listing recent lookups")
	}

	return records, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

// SessionRecorder writes a session's completed lookups to the repository.
type SessionRecorder struct {
	repo      Repository
	sessionID string
}

var _ lookup.Recorder = (*SessionRecorder)(nil)

// NewSessionRecorder binds a repository to one session.
func NewSessionRecorder(repo Repository, sessionID string) (*SessionRecorder, error) {
	if repo == nil {
		return nil, eris.New("history repository is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, eris.New("session id is required")
	}

	return &SessionRecorder{repo: repo, sessionID: sessionID}, nil
}

// RecordLookup stores the completion as a history record.
func (s *SessionRecorder) RecordLookup(ctx context.Context, completion lookup.Completion) error {
	record := &Record{
		SessionID: s.sessionID,
		Word:      completion.Word,
		Outcome:   OutcomeDefinition,
		Text:      completion.View.Text,
	}

	if failure := completion.Outcome.Failure; failure != nil {
		record.StatusCode = failure.StatusCode
		if failure.Kind == dictionary.TransportFailure {
			record.Outcome = OutcomeTransportError
		} else {
			record.Outcome = OutcomeServiceError
		}
	}

	return s.repo.Create(ctx, record)
}
