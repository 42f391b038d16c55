package payments

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/config"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/square"
	"github.com/greenbasket/greenbasket-backend/pkg/sslcommerz"
)

var centsFactor = decimal.NewFromInt(100)

// Gateway abstracts one payment provider behind the two calls the service
// needs. Adapters translate provider responses into GatewaySession and
// GatewayOutcome so the service never touches provider types.
type Gateway interface {
	Initiate(ctx context.Context, params GatewayParams) (*GatewaySession, error)
	Verify(ctx context.Context, ref string) (*GatewayOutcome, error)
}

type squareGateway struct {
	client *square.Client
}

// NewSquareGateway adapts the Square client. Square charges the tokenized
// source immediately, so Initiate both opens and settles the payment.
func NewSquareGateway(client *square.Client) Gateway {
	return &squareGateway{client: client}
}

func (g *squareGateway) Initiate(ctx context.Context, params GatewayParams) (*GatewaySession, error) {
	if strings.TrimSpace(params.SourceToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square source token required")
	}
	payment, err := g.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents: params.Amount.Mul(centsFactor).IntPart(),
		Currency:    params.Currency,
		LocationID:  g.client.LocationID(),
		SourceID:    params.SourceToken,
		ReferenceID: params.TxnID,
		Note:        "greenbasket order " + params.OrderID.String(),
	})
	if err != nil {
		return nil, err
	}
	ref := ""
	if id := payment.GetID(); id != nil {
		ref = *id
	}
	return &GatewaySession{Ref: ref}, nil
}

func (g *squareGateway) Verify(ctx context.Context, ref string) (*GatewayOutcome, error) {
	payment, err := g.client.GetPayment(ctx, ref)
	if err != nil {
		return nil, err
	}
	status := ""
	if s := payment.GetStatus(); s != nil {
		status = *s
	}
	txnID := ref
	if id := payment.GetID(); id != nil {
		txnID = *id
	}
	outcome := &GatewayOutcome{TxnID: txnID}
	switch status {
	case "COMPLETED":
		outcome.Paid = true
	case "APPROVED", "PENDING":
		return nil, pkgerrors.New(pkgerrors.CodeVerificationFailed, "square payment not settled yet").
			WithDetails(map[string]any{"status": status})
	default:
		outcome.Reason = "square status " + status
	}
	return outcome, nil
}

type sslcommerzGateway struct {
	client   *sslcommerz.Client
	frontend config.FrontendConfig
}

// NewSSLCommerzGateway adapts the SSLCommerz hosted-checkout client.
func NewSSLCommerzGateway(client *sslcommerz.Client, frontend config.FrontendConfig) Gateway {
	return &sslcommerzGateway{client: client, frontend: frontend}
}

func (g *sslcommerzGateway) Initiate(ctx context.Context, params GatewayParams) (*GatewaySession, error) {
	session, err := g.client.CreateSession(ctx, sslcommerz.SessionParams{
		TranID:      params.TxnID,
		Amount:      params.Amount.StringFixed(2),
		Currency:    params.Currency,
		SuccessURL:  g.frontend.BaseURL + g.frontend.PaymentSuccessURL,
		FailURL:     g.frontend.BaseURL + g.frontend.PaymentFailureURL,
		CancelURL:   g.frontend.BaseURL + g.frontend.PaymentFailureURL,
		ProductName: "greenbasket order " + params.OrderID.String(),
	})
	if err != nil {
		return nil, err
	}
	return &GatewaySession{RedirectURL: session.GatewayPageURL, Ref: session.SessionKey}, nil
}

func (g *sslcommerzGateway) Verify(ctx context.Context, ref string) (*GatewayOutcome, error) {
	validation, err := g.client.ValidateTransaction(ctx, ref)
	if err != nil {
		return nil, err
	}
	outcome := &GatewayOutcome{Paid: validation.Paid(), TxnID: validation.TranID}
	if !outcome.Paid {
		reason := validation.ErrorReason
		if reason == "" {
			reason = "sslcommerz status " + validation.Status
		}
		outcome.Reason = reason
	}
	if outcome.TxnID == "" {
		outcome.TxnID = ref
	}
	return outcome, nil
}
