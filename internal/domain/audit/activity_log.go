package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened to an entity
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionStatusChange Action = "STATUS_CHANGE"
	ActionAmountChange Action = "AMOUNT_CHANGE"
	ActionAdjustment   Action = "ADJUSTMENT"
	ActionRevision     Action = "REVISION"
)

// ActivityLog is one append-only audit record with before/after snapshots.
// Rows are never updated or deleted by normal operation, and a failure to
// write one must never abort the business operation that triggered it.
type ActivityLog struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	Action     Action          `gorm:"type:varchar(30);not null;index"`
	EntityType string          `gorm:"type:varchar(50);not null;index:idx_activity_logs_entity,priority:1"`
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_activity_logs_entity,priority:2"`
	ActorID    *uuid.UUID      `gorm:"type:uuid;index"`
	ActorName  string          `gorm:"type:varchar(200)"`
	Before     json.RawMessage `gorm:"type:jsonb"`
	After      json.RawMessage `gorm:"type:jsonb"`
	CreatedAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// NewActivityLog creates a new audit record. Snapshots are marshalled by
// the caller; nil means no snapshot on that side (e.g. CREATE has no
// before, DELETE has no after).
func NewActivityLog(action Action, entityType string, entityID uuid.UUID, actorID *uuid.UUID, actorName string, before, after json.RawMessage) *ActivityLog {
	return &ActivityLog{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		ActorName:  actorName,
		Before:     before,
		After:      after,
		CreatedAt:  time.Now(),
	}
}
