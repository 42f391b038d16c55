package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/internal/inventory"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/db"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox/payloads"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
	"github.com/greenbasket/greenbasket-backend/pkg/security"
)

const expireBatchSize = 100

// Service drives the order lifecycle: placement with stock holds, the
// transition table, OTP-gated delivery, cancellation and expiry.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	GetHistory(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error)

	SetStatus(ctx context.Context, params SetStatusParams) (*SetStatusResult, error)
	Cancel(ctx context.Context, params CancelParams) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, params ConfirmDeliveryParams) (*models.Order, error)

	ExpireStale(ctx context.Context) (*ExpireResult, error)

	// ApplyPaymentOutcomeTx records the order-side view of a payment result
	// inside the payment service's transaction. A paid pending order
	// auto-advances to processing.
	ApplyPaymentOutcomeTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error
}

// Deps wires the order service.
type Deps struct {
	DB       *db.Client
	Repo     Repository
	Stock    StockHolder
	Users    UserDirectory
	Products Catalog
	Outbox   EventEmitter
	Attempts AttemptCounter
	OTP      config.OTPConfig
	Checkout config.CheckoutConfig
	Logg     *logger.Logger
}

type service struct {
	db       *db.Client
	repo     Repository
	stock    StockHolder
	users    UserDirectory
	products Catalog
	outbox   EventEmitter
	attempts AttemptCounter
	otpCfg   config.OTPConfig
	checkout config.CheckoutConfig
	logg     *logger.Logger
}

// NewService validates dependencies and returns the order service.
func NewService(deps Deps) (Service, error) {
	if deps.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders db client required")
	}
	if deps.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if deps.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory service required")
	}
	if deps.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if deps.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product catalog required")
	}
	if deps.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if deps.Attempts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attempt counter required")
	}
	if deps.Logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders logger required")
	}
	return &service{
		db:       deps.DB,
		repo:     deps.Repo,
		stock:    deps.Stock,
		users:    deps.Users,
		products: deps.Products,
		outbox:   deps.Outbox,
		attempts: deps.Attempts,
		otpCfg:   deps.OTP,
		checkout: deps.Checkout,
		logg:     deps.Logg,
	}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Order, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(params.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	if !params.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"paymentMethod": string(params.PaymentMethod)})
	}
	if params.ShippingAddress == nil || !params.ShippingAddress.Validate() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "complete shipping address required")
	}

	if _, err := s.users.FindByID(ctx, params.UserID); err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(params.Items))
	for _, item := range params.Items {
		skus = append(skus, item.SKU)
	}
	catalog, err := s.products.FindBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(params.Items))
	reserveItems := make([]inventory.ReserveItem, 0, len(params.Items))
	for _, item := range params.Items {
		product := catalog[item.SKU]
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			SKU:       item.SKU,
			Name:      product.Name,
			Qty:       item.Qty,
			UnitPrice: product.Price,
		})
		reserveItems = append(reserveItems, inventory.ReserveItem{SKU: item.SKU, Qty: item.Qty})
	}

	order := &models.Order{
		ID:              orderID,
		UserID:          params.UserID,
		Total:           orderTotal(items),
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   params.PaymentMethod,
		ShippingAddress: params.ShippingAddress,
		Items:           items,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting order")
		}
		if _, err := s.stock.ReserveTx(ctx, tx, inventory.ReserveParams{
			OrderID: orderID,
			Items:   reserveItems,
		}); err != nil {
			return err
		}
		if err := repo.AppendHistory(ctx, models.OrderStatusHistory{
			OrderID: orderID,
			Status:  enums.OrderStatusPending,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording order history")
		}

		eventItems := make([]payloads.OrderCreatedItem, 0, len(items))
		for _, item := range items {
			eventItems = append(eventItems, payloads.OrderCreatedItem{SKU: item.SKU, Qty: item.Qty})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: params.UserID, Role: string(enums.RoleCustomer)},
			Data: payloads.OrderCreatedEvent{
				OrderID: orderID,
				UserID:  params.UserID,
				Total:   order.Total.StringFixed(2),
				Items:   eventItems,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(logCtx, "order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.mustFind(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, "unknown order status").
			WithDetails(map[string]any{"status": string(params.Status)})
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.List(ctx, listQuery{
		UserID: params.UserID,
		Status: params.Status,
		Limit:  pagination.LimitWithBuffer(limit),
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}

	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) GetHistory(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.mustFind(ctx, s.repo, orderID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order history")
	}
	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			Status:    row.Status,
			Notes:     row.Notes,
			ChangedBy: row.ChangedBy,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

func (s *service) SetStatus(ctx context.Context, params SetStatusParams) (*SetStatusResult, error) {
	if !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, "unknown order status").
			WithDetails(map[string]any{"status": string(params.Status)})
	}
	switch params.Status {
	case enums.OrderStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "cancellation has a dedicated operation")
	case enums.OrderStatusDelivered:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "delivery is confirmed with the customer code")
	}

	order, err := s.mustFind(ctx, s.repo, params.OrderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !from.CanTransitionTo(params.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "transition not allowed").
			WithDetails(map[string]any{"from": string(from), "to": string(params.Status)})
	}

	now := time.Now()
	updates := map[string]any{}
	plainOTP := ""
	if params.Status == enums.OrderStatusShipped {
		code, err := security.GenerateOTP()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating delivery code")
		}
		hash, err := security.HashOTP(code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing delivery code")
		}
		plainOTP = code
		updates["otp_hash"] = hash
		updates["shipped_at"] = now
	}
	if params.Notes != "" {
		updates["admin_notes"] = appendAdminNote(order.AdminNotes, params.Notes, now)
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, order.ID, from, params.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order state changed concurrently")
		}
		return s.recordTransitionTx(ctx, tx, order, from, params.Status, params.Notes, params.ActorID)
	})
	if err != nil {
		return nil, err
	}

	order.Status = params.Status
	if params.Status == enums.OrderStatusShipped {
		order.ShippedAt = &now
	}
	if noted, ok := updates["admin_notes"].(string); ok {
		order.AdminNotes = &noted
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"from":     string(from),
		"to":       string(params.Status),
	})
	s.logg.Info(logCtx, "order status changed")

	// The plaintext delivery code exists only in this response. At rest the
	// order keeps the Argon2id hash.
	return &SetStatusResult{Order: order, DeliveryOTP: plainOTP}, nil
}

func (s *service) Cancel(ctx context.Context, params CancelParams) (*models.Order, error) {
	order, err := s.mustFind(ctx, s.repo, params.OrderID)
	if err != nil {
		return nil, err
	}
	// Once staff have started processing, cancellation goes through support.
	from := order.Status
	if from != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeCannotCancel, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": string(from)})
	}

	now := time.Now()
	updates := map[string]any{"cancelled_at": now}
	if params.Reason != "" {
		updates["admin_notes"] = appendAdminNote(order.AdminNotes, params.Reason, now)
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, order.ID, from, enums.OrderStatusCancelled, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancelling order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order state changed concurrently")
		}

		// Holds may already be gone if the order never reserved or a prior
		// release ran. Anything else is a real failure.
		if _, err := s.stock.ReleaseTx(ctx, tx, order.ID); err != nil {
			if !pkgerrors.HasCode(err, pkgerrors.CodeReservationsNotFound) {
				return err
			}
		}

		var notes *string
		if params.Reason != "" {
			notes = &params.Reason
		}
		if err := repo.AppendHistory(ctx, models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusCancelled,
			Notes:     notes,
			ChangedBy: params.ActorID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording order history")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(params.ActorID),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				Reason:      params.Reason,
				CancelledAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	if noted, ok := updates["admin_notes"].(string); ok {
		order.AdminNotes = &noted
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order cancelled")
	return order, nil
}

func (s *service) ConfirmDelivery(ctx context.Context, params ConfirmDeliveryParams) (*models.Order, error) {
	if len(params.OTP) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery code required")
	}

	order, err := s.mustFind(ctx, s.repo, params.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is not shipped").
			WithDetails(map[string]any{"status": string(order.Status)})
	}

	// Count the attempt before verifying so brute forcing cannot dodge the
	// window by always guessing wrong.
	attemptKey := s.attempts.OTPAttemptKey(order.ID.String())
	count, err := s.attempts.IncrWithTTL(ctx, attemptKey, s.otpCfg.AttemptWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting delivery attempts")
	}
	if count > int64(s.otpCfg.MaxAttempts) {
		return nil, pkgerrors.New(pkgerrors.CodeOTPAttemptsExceeded, "too many delivery code attempts").
			WithDetails(map[string]any{"retryAfter": s.otpCfg.AttemptWindow.String()})
	}

	if order.OTPHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOTP, "invalid delivery code")
	}
	ok, err := security.VerifyOTP(params.OTP, *order.OTPHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying delivery code")
	}
	if !ok {
		remaining := int64(s.otpCfg.MaxAttempts) - count
		if remaining < 0 {
			remaining = 0
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOTP, "invalid delivery code").
			WithDetails(map[string]any{"attemptsRemaining": remaining})
	}

	now := time.Now()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		flipped, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusShipped, enums.OrderStatusDelivered, map[string]any{
			"delivered_at": now,
			"otp_hash":     nil,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking order delivered")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeConflict, "order state changed concurrently")
		}
		// A retried confirmation finds the holds already committed. The
		// delivered status is the source of truth either way.
		if _, err := s.stock.CommitTx(ctx, tx, order.ID); err != nil {
			if !pkgerrors.HasCode(err, pkgerrors.CodeReservationsNotFound) {
				return err
			}
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "no holds to commit on delivery")
		}
		return s.recordTransitionTx(ctx, tx, order, enums.OrderStatusShipped, enums.OrderStatusDelivered, "", nil)
	})
	if err != nil {
		return nil, err
	}

	if err := s.attempts.Del(ctx, attemptKey); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "failed to clear delivery attempt counter")
	}

	order.Status = enums.OrderStatusDelivered
	order.DeliveredAt = &now
	order.OTPHash = nil

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order delivered")
	return order, nil
}

func (s *service) ExpireStale(ctx context.Context) (*ExpireResult, error) {
	cutoff := time.Now().Add(-s.checkout.PendingTTL)
	stale, err := s.repo.FindStalePending(ctx, cutoff, expireBatchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finding stale orders")
	}

	ttlHours := int(s.checkout.PendingTTL.Hours())
	notes := "expired unpaid"
	result := &ExpireResult{}
	var errs error
	for _, order := range stale {
		order := order
		now := time.Now()
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, map[string]any{
				"cancelled_at": now,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expiring order")
			}
			if !ok {
				// Raced with a payment or a manual transition. Leave it be.
				return nil
			}
			if _, err := s.stock.ReleaseTx(ctx, tx, order.ID); err != nil {
				if !pkgerrors.HasCode(err, pkgerrors.CodeReservationsNotFound) {
					return err
				}
			}
			if err := repo.AppendHistory(ctx, models.OrderStatusHistory{
				OrderID: order.ID,
				Status:  enums.OrderStatusCancelled,
				Notes:   &notes,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording order history")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderExpired,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.OrderExpiredEvent{
					OrderID:   order.ID,
					UserID:    order.UserID,
					ExpiredAt: now,
					TTLHours:  &ttlHours,
				},
			}); err != nil {
				return err
			}
			result.Expired++
			return nil
		})
		if err != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Error(logCtx, "expiring stale order", err)
			errs = multierr.Append(errs, err)
		}
	}

	if result.Expired > 0 {
		s.logg.Info(ctx, "stale pending orders expired")
	}
	return result, errs
}

func (s *service) ApplyPaymentOutcomeTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status").
			WithDetails(map[string]any{"status": string(status)})
	}
	repo := s.repo.WithTx(tx)

	order, err := s.mustFind(ctx, repo, orderID)
	if err != nil {
		return err
	}
	if err := repo.SetPaymentStatus(ctx, orderID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating payment status")
	}
	if status != enums.PaymentStatusPaid || order.Status != enums.OrderStatusPending {
		return nil
	}

	ok, err := repo.TransitionStatus(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusProcessing, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advancing paid order")
	}
	if !ok {
		return nil
	}
	return s.recordTransitionTx(ctx, tx, order, enums.OrderStatusPending, enums.OrderStatusProcessing, "payment received", nil)
}

// recordTransitionTx appends the audit row and the status-changed event for a
// transition already applied in tx.
func (s *service) recordTransitionTx(ctx context.Context, tx *gorm.DB, order *models.Order, from, to enums.OrderStatus, notes string, actorID *uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}
	if err := repo.AppendHistory(ctx, models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    to,
		Notes:     notesPtr,
		ChangedBy: actorID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording order history")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorRef(actorID),
		Data: payloads.OrderStatusChangedEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			From:    from,
			To:      to,
			Notes:   notes,
		},
	})
}

func (s *service) mustFind(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found").
			WithDetails(map[string]any{"orderId": id.String()})
	}
	return order, nil
}

// appendAdminNote grows the order's append-only note log, each entry prefixed
// with the time it was written.
func appendAdminNote(existing *string, note string, at time.Time) string {
	entry := "[" + at.UTC().Format(time.RFC3339) + "] " + note
	if existing != nil && *existing != "" {
		return *existing + "\n" + entry
	}
	return entry
}

func actorRef(actorID *uuid.UUID) *outbox.ActorRef {
	if actorID == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: *actorID, Role: string(enums.RoleAdmin)}
}
