package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// OrderStatusHistory is the append-only record of one status transition.
// ChangedBy is nil for system-initiated transitions.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	Notes     *string           `gorm:"column:notes"`
	ChangedBy *uuid.UUID        `gorm:"column:changed_by;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
