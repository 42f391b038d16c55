package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/types"
)

// Order is the buyer-facing order aggregate. Cancellation is a status, not a
// deletion; the delivery OTP is stored hashed and only ever surfaced once.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cod'"`
	ShippingAddress *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	OTPHash         *string             `gorm:"column:otp_hash"`
	AdminNotes      *string             `gorm:"column:admin_notes"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippedAt       *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time          `gorm:"column:delivered_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
