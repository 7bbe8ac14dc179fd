package history

import "time"

// Outcome classifies how a lookup ended.
type Outcome string

const (
	OutcomeDefinition     Outcome = "definition"
	OutcomeServiceError   Outcome = "service_error"
	OutcomeTransportError Outcome = "transport_error"
)

// Record is one completed lookup persisted in the database.
type Record struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"size:64;index:idx_lookups_session_created,priority:1;not null"`
	Word       string    `gorm:"size:255;not null"`
	Outcome    Outcome   `gorm:"size:32;not null"`
	Text       string    `gorm:"type:text;not null"`
	StatusCode int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"index:idx_lookups_session_created,priority:2"`
}

// TableName defines the table name for the Record model.
func (Record) TableName() string {
	return "lookups"
}
