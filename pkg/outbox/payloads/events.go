package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// OrderCreatedItem is one reserved line inside an order.created payload.
type OrderCreatedItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// OrderCreatedEvent signals a new order with stock held for it.
type OrderCreatedEvent struct {
	OrderID uuid.UUID          `json:"orderId"`
	UserID  uuid.UUID          `json:"userId"`
	Total   string             `json:"total"`
	Items   []OrderCreatedItem `json:"items"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"orderId"`
	UserID  uuid.UUID         `json:"userId"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
	Notes   string            `json:"notes,omitempty"`
}

// OrderCancelledEvent is emitted whenever an order is cancelled and its
// reservations released.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	UserID      uuid.UUID `json:"userId"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelledAt"`
}

// OrderExpiredEvent describes the payload when stale pending orders expire.
type OrderExpiredEvent struct {
	OrderID   uuid.UUID `json:"orderId"`
	UserID    uuid.UUID `json:"userId"`
	ExpiredAt time.Time `json:"expiredAt"`
	TTLHours  *int      `json:"ttlHours,omitempty"`
}

// PaymentSucceededEvent is emitted when a gateway confirms a payment.
type PaymentSucceededEvent struct {
	OrderID   uuid.UUID           `json:"orderId"`
	UserID    uuid.UUID           `json:"userId"`
	PaymentID uuid.UUID           `json:"paymentId"`
	Gateway   enums.PaymentMethod `json:"gateway"`
	Amount    string              `json:"amount"`
	TxnID     string              `json:"txnId"`
}

// PaymentFailedEvent is emitted when a gateway reports a failed payment.
type PaymentFailedEvent struct {
	OrderID   uuid.UUID           `json:"orderId"`
	UserID    uuid.UUID           `json:"userId"`
	PaymentID uuid.UUID           `json:"paymentId"`
	Gateway   enums.PaymentMethod `json:"gateway"`
	Amount    string              `json:"amount"`
	TxnID     string              `json:"txnId"`
	Reason    string              `json:"reason,omitempty"`
}
