package models

import (
	"time"

	"github.com/google/uuid"
)

// EventLogModel is one row of the append-only inventory event log
type EventLogModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string    `gorm:"type:varchar(64);not null;index"`
	AggregateType string    `gorm:"type:varchar(64);not null;index:idx_event_log_aggregate,priority:1"`
	AggregateKey  string    `gorm:"type:varchar(128);not null;index:idx_event_log_aggregate,priority:2"`
	Payload       string    `gorm:"type:text;not null"`
	OccurredAt    time.Time `gorm:"not null;index"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EventLogModel) TableName() string {
	return "inventory_event_log"
}
