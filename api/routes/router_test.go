package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/internal/inventory"
	"github.com/greenbasket/greenbasket-backend/internal/notifications"
	"github.com/greenbasket/greenbasket-backend/internal/orders"
	"github.com/greenbasket/greenbasket-backend/internal/payments"
	pkgAuth "github.com/greenbasket/greenbasket-backend/pkg/auth"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubInventoryService struct{}

func (stubInventoryService) Reserve(ctx context.Context, params inventory.ReserveParams) ([]models.Reservation, error) {
	return nil, nil
}

func (stubInventoryService) Commit(ctx context.Context, orderID uuid.UUID) (*inventory.CommitResult, error) {
	return &inventory.CommitResult{}, nil
}

func (stubInventoryService) Release(ctx context.Context, orderID uuid.UUID) (*inventory.ReleaseResult, error) {
	return &inventory.ReleaseResult{}, nil
}

func (stubInventoryService) AdjustStock(ctx context.Context, params inventory.AdjustParams) (*models.SkuInventory, error) {
	return &models.SkuInventory{SKU: params.SKU}, nil
}

func (stubInventoryService) GetBySKU(ctx context.Context, sku string) (*models.SkuInventory, error) {
	return &models.SkuInventory{SKU: sku}, nil
}

func (stubInventoryService) ReserveTx(ctx context.Context, tx *gorm.DB, params inventory.ReserveParams) ([]models.Reservation, error) {
	return nil, nil
}

func (stubInventoryService) CommitTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*inventory.CommitResult, error) {
	return nil, nil
}

func (stubInventoryService) ReleaseTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*inventory.ReleaseResult, error) {
	return nil, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, params orders.CreateParams) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), UserID: params.UserID}, nil
}

func (stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (stubOrdersService) List(ctx context.Context, params orders.ListParams) (*orders.ListResult, error) {
	return &orders.ListResult{}, nil
}

func (stubOrdersService) GetHistory(ctx context.Context, orderID uuid.UUID) ([]orders.HistoryEntry, error) {
	return nil, nil
}

func (stubOrdersService) SetStatus(ctx context.Context, params orders.SetStatusParams) (*orders.SetStatusResult, error) {
	return &orders.SetStatusResult{Order: &models.Order{ID: params.OrderID, Status: params.Status}}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, params orders.CancelParams) (*models.Order, error) {
	return &models.Order{ID: params.OrderID, Status: enums.OrderStatusCancelled}, nil
}

func (stubOrdersService) ConfirmDelivery(ctx context.Context, params orders.ConfirmDeliveryParams) (*models.Order, error) {
	return &models.Order{ID: params.OrderID, Status: enums.OrderStatusDelivered}, nil
}

func (stubOrdersService) ExpireStale(ctx context.Context) (*orders.ExpireResult, error) {
	return &orders.ExpireResult{}, nil
}

func (stubOrdersService) ApplyPaymentOutcomeTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error {
	return nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Initiate(ctx context.Context, params payments.InitiateParams) (*payments.InitiateResult, error) {
	return &payments.InitiateResult{
		Payment:     &models.Payment{ID: uuid.New(), OrderID: params.OrderID},
		RedirectURL: "https://gateway.example/session",
	}, nil
}

func (stubPaymentsService) Verify(ctx context.Context, params payments.VerifyParams) (*models.Payment, error) {
	return &models.Payment{
		ID:      uuid.New(),
		OrderID: uuid.New(),
		Status:  enums.PaymentStatusPaid,
	}, nil
}

func (stubPaymentsService) GetStatus(ctx context.Context, orderID uuid.UUID) (*payments.StatusResult, error) {
	return &payments.StatusResult{OrderID: orderID, PaymentStatus: enums.PaymentStatusPending}, nil
}

func (stubPaymentsService) SetStatus(ctx context.Context, params payments.SetStatusParams) (*models.Payment, error) {
	return &models.Payment{ID: params.PaymentID, Status: params.Status}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "greenbasket-test",
			ExpirationMinutes: 60,
		},
		Frontend: config.FrontendConfig{
			BaseURL:           "http://localhost:3000",
			PaymentSuccessURL: "/payment/success",
			PaymentFailureURL: "/payment/failure",
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Inventory:     stubInventoryService{},
		Orders:        stubOrdersService{},
		Payments:      stubPaymentsService{},
		Notifications: stubNotificationsService{},
	})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())

	for _, path := range []string{"/orders", "/notifications", "/inventory/sku/APPLE-1KG"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestOrdersListSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	body := `{"sku":"APPLE-1KG","type":"add","qty":5}`

	req := httptest.NewRequest(http.MethodPost, "/inventory/adjust", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/inventory/adjust", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyCallbackIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/payment/sslcommerz/verify?tran_id=gb-123&val_id=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if location := rec.Header().Get("Location"); !strings.Contains(location, "/payment/success") {
		t.Fatalf("unexpected redirect target %q", location)
	}
}

func TestPaymentStatusRoutesAlongsideVerify(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/payment/"+uuid.NewString()+"/status", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
