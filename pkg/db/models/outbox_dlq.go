package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// OutboxDLQ parks events the publisher could not deliver after exhausting
// its attempts, preserving the payload for manual replay.
type OutboxDLQ struct {
	ID           uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	EventID      uuid.UUID                  `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	EventType    enums.OutboxEventType      `gorm:"column:event_type;not null"`
	AggregateID  uuid.UUID                  `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload      json.RawMessage            `gorm:"column:payload;type:jsonb;not null"`
	ErrorReason  enums.OutboxDLQErrorReason `gorm:"column:error_reason;not null"`
	LastError    *string                    `gorm:"column:last_error"`
	AttemptCount int                        `gorm:"column:attempt_count;not null"`
	CreatedAt    time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (OutboxDLQ) TableName() string { return "outbox_dlq" }
