package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/types"
)

// ItemInput is one requested order line.
type ItemInput struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,gt=0"`
}

// CreateParams carries everything needed to place an order.
type CreateParams struct {
	UserID          uuid.UUID
	Items           []ItemInput
	PaymentMethod   enums.PaymentMethod
	ShippingAddress *types.Address
}

// SetStatusParams drives an explicit lifecycle transition.
type SetStatusParams struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Notes   string
	ActorID *uuid.UUID
}

// SetStatusResult reports the transition outcome. DeliveryOTP is only
// populated on the transition into shipped and is never retrievable again.
type SetStatusResult struct {
	Order       *models.Order
	DeliveryOTP string
}

// ConfirmDeliveryParams carries the customer-presented OTP.
type ConfirmDeliveryParams struct {
	OrderID uuid.UUID
	OTP     string
}

// CancelParams identifies the order to cancel and who asked.
type CancelParams struct {
	OrderID uuid.UUID
	ActorID *uuid.UUID
	Reason  string
}

// ListParams configures cursor pagination over a user's orders.
type ListParams struct {
	UserID uuid.UUID
	Status enums.OrderStatus
	Limit  int
	Cursor string
}

// ListResult wraps a page of orders plus the next-page cursor.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// HistoryEntry is one row of the audit trail in API shape.
type HistoryEntry struct {
	Status    enums.OrderStatus `json:"status"`
	Notes     *string           `json:"notes,omitempty"`
	ChangedBy *uuid.UUID        `json:"changedBy,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ExpireResult summarizes a stale-order sweep.
type ExpireResult struct {
	Expired int
}

func orderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return total
}
