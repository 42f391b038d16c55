package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// Payment records one gateway session for an order. TxnID starts as the
// locally generated correlation reference and is overwritten with the
// gateway's canonical transaction id once verified; LocalRef keeps the
// original reference so a replayed callback still resolves. An order may
// accumulate several rows over time, but at most one pending row per
// (order, gateway).
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Gateway       enums.PaymentMethod `gorm:"column:gateway;not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	TxnID         string              `gorm:"column:txn_id;not null;index"`
	LocalRef      string              `gorm:"column:local_ref;not null;index"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	FailureReason *string             `gorm:"column:failure_reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
