package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// Reservation is one stock hold against an order. Rows form an append-only
// audit trail: status leaves RESERVED exactly once and rows are never deleted.
type Reservation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	SKU       string                  `gorm:"column:sku;not null"`
	Qty       int                     `gorm:"column:qty;not null"`
	Status    enums.ReservationStatus `gorm:"column:status;not null;default:'RESERVED'"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
