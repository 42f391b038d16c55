package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// InitiateParams starts a payment attempt for an order.
type InitiateParams struct {
	OrderID uuid.UUID
	Gateway enums.PaymentMethod
	// SourceToken is the client-side payment token some gateways require,
	// e.g. a Square card nonce. Ignored by redirect gateways.
	SourceToken string
}

// InitiateResult carries the created payment row plus where to send the buyer
// next. RedirectURL is empty for gateways without a hosted page.
type InitiateResult struct {
	Payment     *models.Payment
	RedirectURL string
	// GatewayRef is the gateway-side reference usable for verification when
	// the gateway returns one at initiation.
	GatewayRef string
}

// VerifyParams identifies the gateway outcome to reconcile. TxnID is the
// local correlation reference handed out at initiation; GatewayRef is the
// gateway-side identifier returned by its callback (Square payment id,
// SSLCommerz val_id).
type VerifyParams struct {
	TxnID      string
	GatewayRef string
}

// SetStatusParams is the back-office override for a payment row.
type SetStatusParams struct {
	PaymentID uuid.UUID
	Status    enums.PaymentStatus
	Reason    string
	ActorID   *uuid.UUID
}

// StatusResult summarizes the money state of an order.
type StatusResult struct {
	OrderID       uuid.UUID           `json:"orderId"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	Payments      []models.Payment    `json:"payments"`
}

// GatewayParams is what an adapter needs to open a session.
type GatewayParams struct {
	OrderID     uuid.UUID
	TxnID       string
	Amount      decimal.Decimal
	Currency    string
	SourceToken string
}

// GatewaySession is an opened gateway session.
type GatewaySession struct {
	RedirectURL string
	// Ref is the gateway-side reference usable for verification, when the
	// gateway returns one at initiation.
	Ref string
}

// GatewayOutcome is the gateway's answer during verification.
type GatewayOutcome struct {
	Paid   bool
	TxnID  string
	Reason string
}
