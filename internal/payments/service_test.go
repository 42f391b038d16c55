package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/internal/inventory"
	"github.com/greenbasket/greenbasket-backend/internal/orders"
	"github.com/greenbasket/greenbasket-backend/internal/products"
	"github.com/greenbasket/greenbasket-backend/internal/users"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/db"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox"
	"github.com/greenbasket/greenbasket-backend/pkg/types"
)

type fakeGateway struct {
	session     *GatewaySession
	initErr     error
	outcome     *GatewayOutcome
	verifyErr   error
	initCalls   int
	verifyCalls int
}

func (f *fakeGateway) Initiate(_ context.Context, _ GatewayParams) (*GatewaySession, error) {
	f.initCalls++
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.session, nil
}

func (f *fakeGateway) Verify(_ context.Context, _ string) (*GatewayOutcome, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.outcome, nil
}

type noopAttempts struct{}

func (noopAttempts) IncrWithTTL(context.Context, string, time.Duration) (int64, error) { return 1, nil }
func (noopAttempts) OTPAttemptKey(orderID string) string                               { return "otp:" + orderID }
func (noopAttempts) Del(context.Context, ...string) error                              { return nil }

type testEnv struct {
	svc     Service
	orders  orders.Service
	conn    *gorm.DB
	gateway *fakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:payments_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.SkuInventory{},
		&models.Reservation{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.Payment{},
		&models.OutboxEvent{},
	))

	logg := logger.New(logger.Options{ServiceName: "payments-test", Level: zerolog.Disabled})
	client := db.FromConn(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	stock, err := inventory.NewService(inventory.Deps{
		DB:   client,
		Repo: inventory.NewRepository(conn),
		Logg: logg,
	})
	require.NoError(t, err)

	orderSvc, err := orders.NewService(orders.Deps{
		DB:       client,
		Repo:     orders.NewRepository(conn),
		Stock:    stock,
		Users:    users.NewRepository(conn),
		Products: products.NewRepository(conn),
		Outbox:   emitter,
		Attempts: noopAttempts{},
		OTP:      config.OTPConfig{MaxAttempts: 5, AttemptWindow: time.Minute},
		Checkout: config.CheckoutConfig{PendingTTL: 48 * time.Hour},
		Logg:     logg,
	})
	require.NoError(t, err)

	gateway := &fakeGateway{}
	svc, err := NewService(Deps{
		DB:     client,
		Repo:   NewRepository(conn),
		Orders: orderSvc,
		Outbox: emitter,
		Gateways: map[enums.PaymentMethod]Gateway{
			enums.PaymentMethodSquare:     gateway,
			enums.PaymentMethodSSLCommerz: gateway,
		},
		Currency: "BDT",
		Logg:     logg,
	})
	require.NoError(t, err)

	return &testEnv{svc: svc, orders: orderSvc, conn: conn, gateway: gateway}
}

func (e *testEnv) seedOrder(t *testing.T, method enums.PaymentMethod) *models.Order {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, e.conn.Create(&models.User{
		ID:    userID,
		Email: userID.String() + "@example.com",
		Name:  "Test Buyer",
	}).Error)
	require.NoError(t, e.conn.Create(&models.Product{
		SKU:    "SKU-APPLES",
		Name:   "Apples",
		Price:  decimal.RequireFromString("2.50"),
		Active: true,
	}).Error)
	require.NoError(t, e.conn.Create(&models.SkuInventory{
		SKU:            "SKU-APPLES",
		TotalStock:     50,
		AvailableStock: 50,
	}).Error)

	order, err := e.orders.Create(context.Background(), orders.CreateParams{
		UserID:          userID,
		Items:           []orders.ItemInput{{SKU: "SKU-APPLES", Qty: 4}},
		PaymentMethod:   method,
		ShippingAddress: &types.Address{Line1: "12 Market Road", City: "Dhaka", PostalCode: "1207", Country: "BD"},
	})
	require.NoError(t, err)
	return order
}

func (e *testEnv) loadOrder(t *testing.T, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, e.conn.First(&order, "id = ?", id).Error)
	return order
}

func (e *testEnv) loadPayment(t *testing.T, id uuid.UUID) models.Payment {
	t.Helper()
	var payment models.Payment
	require.NoError(t, e.conn.First(&payment, "id = ?", id).Error)
	return payment
}

func (e *testEnv) countEvents(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error)
	return count
}

func TestInitiateCODSkipsGateway(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodCOD)

	result, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodCOD})
	require.NoError(t, err)
	require.Empty(t, result.RedirectURL)
	require.Equal(t, enums.PaymentStatusPending, result.Payment.Status)
	require.Contains(t, result.Payment.TxnID, "GB-")
	require.Zero(t, env.gateway.initCalls)
}

func TestInitiateOpensGatewaySession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodSSLCommerz)
	env.gateway.session = &GatewaySession{RedirectURL: "https://pay.example/session", Ref: "SESSION-1"}

	result, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodSSLCommerz})
	require.NoError(t, err)
	require.Equal(t, "https://pay.example/session", result.RedirectURL)
	require.Equal(t, "SESSION-1", result.GatewayRef)
	require.Equal(t, 1, env.gateway.initCalls)

	// a second initiation on the same gateway is refused while one is pending
	_, err = env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodSSLCommerz})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentAlreadyInitiated))
	require.Equal(t, 1, env.gateway.initCalls)
}

func TestInitiateRefusesPaidOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodCOD)
	require.NoError(t, env.conn.Model(&models.Order{}).
		Where("id = ?", order.ID).
		UpdateColumn("payment_status", enums.PaymentStatusPaid).Error)

	_, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodCOD})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentAlreadyCompleted))

	_, err = env.svc.Initiate(ctx, InitiateParams{OrderID: uuid.New(), Gateway: enums.PaymentMethodCOD})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderNotFound))
}

func TestInitiateGatewayFailureLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodSSLCommerz)
	env.gateway.initErr = pkgerrors.New(pkgerrors.CodePaymentInitFailed, "sslcommerz: session rejected")

	_, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodSSLCommerz})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentInitFailed))

	var count int64
	require.NoError(t, env.conn.Model(&models.Payment{}).Count(&count).Error)
	require.Zero(t, count)

	// the failed attempt must not block a retry
	env.gateway.initErr = nil
	env.gateway.session = &GatewaySession{RedirectURL: "https://pay.example/retry"}
	_, err = env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodSSLCommerz})
	require.NoError(t, err)
}

func TestVerifyPaidIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodSSLCommerz)
	env.gateway.session = &GatewaySession{RedirectURL: "https://pay.example/session"}

	result, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodSSLCommerz})
	require.NoError(t, err)

	env.gateway.outcome = &GatewayOutcome{Paid: true, TxnID: "BANK-TXN-77"}
	payment, err := env.svc.Verify(ctx, VerifyParams{TxnID: result.Payment.TxnID, GatewayRef: "VAL-1"})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, payment.Status)
	require.Equal(t, "BANK-TXN-77", payment.TxnID)

	stored := env.loadOrder(t, order.ID)
	require.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	require.Equal(t, enums.OrderStatusProcessing, stored.Status)
	require.EqualValues(t, 1, env.countEvents(t, enums.EventPaymentSucceeded))

	// a redelivered callback carries the original local reference even
	// though the row now holds the canonical txn id
	replay, err := env.svc.Verify(ctx, VerifyParams{TxnID: result.Payment.TxnID, GatewayRef: "VAL-1"})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, replay.Status)
	require.Equal(t, 1, env.gateway.verifyCalls)
	require.EqualValues(t, 1, env.countEvents(t, enums.EventPaymentSucceeded))

	// a retry keyed by the canonical id resolves too
	replay, err = env.svc.Verify(ctx, VerifyParams{TxnID: "BANK-TXN-77", GatewayRef: "VAL-1"})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, replay.Status)
	require.Equal(t, 1, env.gateway.verifyCalls)
	require.EqualValues(t, 1, env.countEvents(t, enums.EventPaymentSucceeded))
}

func TestVerifyFailedOutcome(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodSquare)
	env.gateway.session = &GatewaySession{Ref: "SQ-PAY-1"}

	result, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodSquare, SourceToken: "cnon:ok"})
	require.NoError(t, err)

	env.gateway.outcome = &GatewayOutcome{Paid: false, TxnID: result.Payment.TxnID, Reason: "card declined"}
	payment, err := env.svc.Verify(ctx, VerifyParams{TxnID: result.Payment.TxnID, GatewayRef: "SQ-PAY-1"})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.FailureReason)
	require.Equal(t, "card declined", *payment.FailureReason)

	stored := env.loadOrder(t, order.ID)
	require.Equal(t, enums.PaymentStatusFailed, stored.PaymentStatus)
	// a failed payment does not move the order
	require.Equal(t, enums.OrderStatusPending, stored.Status)
	require.EqualValues(t, 1, env.countEvents(t, enums.EventPaymentFailed))
}

func TestVerifyValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Verify(ctx, VerifyParams{TxnID: "GB-unknown", GatewayRef: "VAL-1"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentNotFound))

	_, err = env.svc.Verify(ctx, VerifyParams{TxnID: ""})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	order := env.seedOrder(t, enums.PaymentMethodCOD)
	result, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodCOD})
	require.NoError(t, err)

	_, err = env.svc.Verify(ctx, VerifyParams{TxnID: result.Payment.TxnID, GatewayRef: "anything"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGetStatusListsPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodCOD)

	_, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodCOD})
	require.NoError(t, err)

	status, err := env.svc.GetStatus(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, status.PaymentStatus)
	require.Len(t, status.Payments, 1)

	_, err = env.svc.GetStatus(ctx, uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderNotFound))
}

func TestSetStatusSettlesCashOnDelivery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodCOD)

	result, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodCOD})
	require.NoError(t, err)

	actor := uuid.New()
	payment, err := env.svc.SetStatus(ctx, SetStatusParams{
		PaymentID: result.Payment.ID,
		Status:    enums.PaymentStatusPaid,
		ActorID:   &actor,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, payment.Status)

	stored := env.loadOrder(t, order.ID)
	require.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	require.Equal(t, enums.OrderStatusProcessing, stored.Status)
	require.EqualValues(t, 1, env.countEvents(t, enums.EventPaymentSucceeded))

	// repeating the override is a no-op
	again, err := env.svc.SetStatus(ctx, SetStatusParams{PaymentID: result.Payment.ID, Status: enums.PaymentStatusPaid})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, again.Status)
	require.EqualValues(t, 1, env.countEvents(t, enums.EventPaymentSucceeded))
}

func TestSetStatusFailedRecordsReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.seedOrder(t, enums.PaymentMethodCOD)

	result, err := env.svc.Initiate(ctx, InitiateParams{OrderID: order.ID, Gateway: enums.PaymentMethodCOD})
	require.NoError(t, err)

	payment, err := env.svc.SetStatus(ctx, SetStatusParams{
		PaymentID: result.Payment.ID,
		Status:    enums.PaymentStatusFailed,
		Reason:    "buyer refused delivery",
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.FailureReason)
	require.Equal(t, "buyer refused delivery", *payment.FailureReason)
	require.Equal(t, enums.PaymentStatusFailed, env.loadOrder(t, order.ID).PaymentStatus)

	_, err = env.svc.SetStatus(ctx, SetStatusParams{PaymentID: uuid.New(), Status: enums.PaymentStatusPaid})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentNotFound))

	_, err = env.svc.SetStatus(ctx, SetStatusParams{PaymentID: result.Payment.ID, Status: enums.PaymentStatus("refunded")})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidStatus))
}
