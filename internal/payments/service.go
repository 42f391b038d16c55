package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox/payloads"
)

const txnRefPrefix = "GB-"

// OrderStore is the slice of the order service payments need: load an order
// and record a payment outcome inside the payment transaction.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ApplyPaymentOutcomeTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error
}

// EventEmitter appends domain events to the outbox inside the caller's
// transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns payment sessions and their reconciliation with the order.
type Service interface {
	Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error)
	Verify(ctx context.Context, params VerifyParams) (*models.Payment, error)
	GetStatus(ctx context.Context, orderID uuid.UUID) (*StatusResult, error)
	SetStatus(ctx context.Context, params SetStatusParams) (*models.Payment, error)
}

// Deps wires the payment service.
type Deps struct {
	DB       *db.Client
	Repo     Repository
	Orders   OrderStore
	Outbox   EventEmitter
	Gateways map[enums.PaymentMethod]Gateway
	Currency string
	Logg     *logger.Logger
}

type service struct {
	db       *db.Client
	repo     Repository
	orders   OrderStore
	outbox   EventEmitter
	gateways map[enums.PaymentMethod]Gateway
	currency string
	logg     *logger.Logger
}

// NewService validates dependencies and returns the payment service.
func NewService(deps Deps) (Service, error) {
	if deps.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments db client required")
	}
	if deps.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments repository required")
	}
	if deps.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order store required")
	}
	if deps.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if deps.Logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments logger required")
	}
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "BDT"
	}
	gateways := deps.Gateways
	if gateways == nil {
		gateways = map[enums.PaymentMethod]Gateway{}
	}
	return &service{
		db:       deps.DB,
		repo:     deps.Repo,
		orders:   deps.Orders,
		outbox:   deps.Outbox,
		gateways: gateways,
		currency: currency,
		logg:     deps.Logg,
	}, nil
}

func newTxnRef() string {
	return txnRefPrefix + uuid.NewString()
}

func (s *service) Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	if params.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !params.Gateway.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"gateway": string(params.Gateway)})
	}

	order, err := s.orders.Get(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodePaymentAlreadyCompleted, "order is already paid")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is cancelled")
	}

	if existing, err := s.repo.FindPending(ctx, params.OrderID, params.Gateway); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking pending payments")
	} else if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodePaymentAlreadyInitiated, "a pending payment already exists").
			WithDetails(map[string]any{"txnId": existing.TxnID})
	}

	ref := newTxnRef()
	payment := &models.Payment{
		ID:       uuid.New(),
		OrderID:  params.OrderID,
		Gateway:  params.Gateway,
		Amount:   order.Total,
		TxnID:    ref,
		LocalRef: ref,
		Status:   enums.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		if db.IsUniqueViolation(err, "ux_payments_pending_order_gateway") {
			return nil, pkgerrors.New(pkgerrors.CodePaymentAlreadyInitiated, "a pending payment already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting payment")
	}

	logCtx := s.logg.WithGateway(s.logg.WithOrderID(ctx, params.OrderID.String()), string(params.Gateway))

	// Cash on delivery settles at the door; there is no session to open.
	if params.Gateway == enums.PaymentMethodCOD {
		s.logg.Info(logCtx, "payment initiated")
		return &InitiateResult{Payment: payment}, nil
	}

	gateway, ok := s.gateways[params.Gateway]
	if !ok {
		_ = s.repo.Delete(ctx, payment.ID)
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured").
			WithDetails(map[string]any{"gateway": string(params.Gateway)})
	}

	session, err := gateway.Initiate(ctx, GatewayParams{
		OrderID:     order.ID,
		TxnID:       payment.TxnID,
		Amount:      order.Total,
		Currency:    s.currency,
		SourceToken: params.SourceToken,
	})
	if err != nil {
		// The pending row must not block a retry after a gateway failure.
		if delErr := s.repo.Delete(ctx, payment.ID); delErr != nil {
			s.logg.Error(logCtx, "cleaning up failed payment row", delErr)
		}
		if pkgerrors.HasCode(err, pkgerrors.CodeValidation) || pkgerrors.HasCode(err, pkgerrors.CodePaymentInitFailed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentInitFailed, err, "opening gateway session")
	}

	s.logg.Info(logCtx, "payment initiated")
	return &InitiateResult{Payment: payment, RedirectURL: session.RedirectURL, GatewayRef: session.Ref}, nil
}

// Verify reconciles a gateway outcome with the payment and its order. Replays
// are safe: once the row is paid every later call returns it unchanged.
func (s *service) Verify(ctx context.Context, params VerifyParams) (*models.Payment, error) {
	if strings.TrimSpace(params.TxnID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	// Gateways retry callbacks with either our local reference or their own
	// transaction id. Try the supplied reference first, then the gateway id;
	// either resolves against the local reference even after the canonical
	// txn id overwrote it.
	payment, err := s.repo.FindByRef(ctx, params.TxnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
	}
	if payment == nil && strings.TrimSpace(params.GatewayRef) != "" && params.GatewayRef != params.TxnID {
		payment, err = s.repo.FindByRef(ctx, params.GatewayRef)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
		}
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotFound, "payment not found").
			WithDetails(map[string]any{"txnId": params.TxnID})
	}
	if payment.Status == enums.PaymentStatusPaid {
		return payment, nil
	}
	if payment.Gateway == enums.PaymentMethodCOD {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery settles at handover")
	}
	if strings.TrimSpace(params.GatewayRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway reference required")
	}

	gateway, ok := s.gateways[payment.Gateway]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured").
			WithDetails(map[string]any{"gateway": string(payment.Gateway)})
	}

	outcome, err := gateway.Verify(ctx, params.GatewayRef)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeVerificationFailed, err, "verifying with gateway")
	}

	order, err := s.orders.Get(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if outcome.Paid {
			latched, err := repo.MarkPaid(ctx, payment.ID, outcome.TxnID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking payment paid")
			}
			if !latched {
				// Lost the race against another verify. Nothing left to do.
				return nil
			}
			if err := s.orders.ApplyPaymentOutcomeTx(ctx, tx, payment.OrderID, enums.PaymentStatusPaid); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentSucceeded,
				AggregateType: enums.AggregatePayment,
				AggregateID:   payment.ID,
				Data: payloads.PaymentSucceededEvent{
					OrderID:   payment.OrderID,
					UserID:    order.UserID,
					PaymentID: payment.ID,
					Gateway:   payment.Gateway,
					Amount:    payment.Amount.StringFixed(2),
					TxnID:     outcome.TxnID,
				},
			})
		}

		if err := repo.MarkFailed(ctx, payment.ID, outcome.Reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking payment failed")
		}
		if err := s.orders.ApplyPaymentOutcomeTx(ctx, tx, payment.OrderID, enums.PaymentStatusFailed); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: payloads.PaymentFailedEvent{
				OrderID:   payment.OrderID,
				UserID:    order.UserID,
				PaymentID: payment.ID,
				Gateway:   payment.Gateway,
				Amount:    payment.Amount.StringFixed(2),
				TxnID:     payment.TxnID,
				Reason:    outcome.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading payment")
	}

	logCtx := s.logg.WithGateway(s.logg.WithOrderID(ctx, payment.OrderID.String()), string(payment.Gateway))
	if updated.Status == enums.PaymentStatusPaid {
		s.logg.Info(logCtx, "payment verified")
	} else {
		s.logg.Warn(logCtx, "payment verification reported failure")
	}
	return updated, nil
}

func (s *service) GetStatus(ctx context.Context, orderID uuid.UUID) (*StatusResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing payments")
	}
	return &StatusResult{
		OrderID:       orderID,
		PaymentStatus: order.PaymentStatus,
		Payments:      rows,
	}, nil
}

// SetStatus is the back-office override used to settle cash on delivery or
// correct a stuck gateway payment. It moves the order's payment state too.
func (s *service) SetStatus(ctx context.Context, params SetStatusParams) (*models.Payment, error) {
	if params.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, "unknown payment status").
			WithDetails(map[string]any{"status": string(params.Status)})
	}

	payment, err := s.repo.FindByID(ctx, params.PaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotFound, "payment not found")
	}
	if payment.Status == params.Status {
		return payment, nil
	}

	order, err := s.orders.Get(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		switch params.Status {
		case enums.PaymentStatusPaid:
			latched, err := repo.MarkPaid(ctx, payment.ID, payment.TxnID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking payment paid")
			}
			if !latched {
				return nil
			}
			if err := s.orders.ApplyPaymentOutcomeTx(ctx, tx, payment.OrderID, enums.PaymentStatusPaid); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentSucceeded,
				AggregateType: enums.AggregatePayment,
				AggregateID:   payment.ID,
				Actor:         actorRef(params.ActorID),
				Data: payloads.PaymentSucceededEvent{
					OrderID:   payment.OrderID,
					UserID:    order.UserID,
					PaymentID: payment.ID,
					Gateway:   payment.Gateway,
					Amount:    payment.Amount.StringFixed(2),
					TxnID:     payment.TxnID,
				},
			})
		case enums.PaymentStatusFailed:
			var reason *string
			if params.Reason != "" {
				reason = &params.Reason
			}
			if err := repo.SetStatus(ctx, payment.ID, enums.PaymentStatusFailed, reason); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking payment failed")
			}
			if err := s.orders.ApplyPaymentOutcomeTx(ctx, tx, payment.OrderID, enums.PaymentStatusFailed); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregatePayment,
				AggregateID:   payment.ID,
				Actor:         actorRef(params.ActorID),
				Data: payloads.PaymentFailedEvent{
					OrderID:   payment.OrderID,
					UserID:    order.UserID,
					PaymentID: payment.ID,
					Gateway:   payment.Gateway,
					Amount:    payment.Amount.StringFixed(2),
					TxnID:     payment.TxnID,
					Reason:    params.Reason,
				},
			})
		default:
			// Reverting to pending only touches the rows, no event.
			if err := repo.SetStatus(ctx, payment.ID, enums.PaymentStatusPending, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resetting payment status")
			}
			return s.orders.ApplyPaymentOutcomeTx(ctx, tx, payment.OrderID, enums.PaymentStatusPending)
		}
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading payment")
	}

	logCtx := s.logg.WithGateway(s.logg.WithOrderID(ctx, payment.OrderID.String()), string(payment.Gateway))
	s.logg.Info(logCtx, "payment status overridden")
	return updated, nil
}

func actorRef(actorID *uuid.UUID) *outbox.ActorRef {
	if actorID == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: *actorID, Role: string(enums.RoleAdmin)}
}
