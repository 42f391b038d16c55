package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/api/middleware"
	internalorders "github.com/greenbasket/greenbasket-backend/internal/orders"
	"github.com/greenbasket/greenbasket-backend/internal/payments"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/types"
)

type fakeOrdersService struct {
	createFn          func(ctx context.Context, params internalorders.CreateParams) (*models.Order, error)
	getFn             func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	setStatusFn       func(ctx context.Context, params internalorders.SetStatusParams) (*internalorders.SetStatusResult, error)
	cancelFn          func(ctx context.Context, params internalorders.CancelParams) (*models.Order, error)
	confirmDeliveryFn func(ctx context.Context, params internalorders.ConfirmDeliveryParams) (*models.Order, error)
}

func (f *fakeOrdersService) Create(ctx context.Context, params internalorders.CreateParams) (*models.Order, error) {
	return f.createFn(ctx, params)
}

func (f *fakeOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.getFn(ctx, id)
}

func (f *fakeOrdersService) List(ctx context.Context, params internalorders.ListParams) (*internalorders.ListResult, error) {
	return &internalorders.ListResult{}, nil
}

func (f *fakeOrdersService) GetHistory(ctx context.Context, orderID uuid.UUID) ([]internalorders.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeOrdersService) SetStatus(ctx context.Context, params internalorders.SetStatusParams) (*internalorders.SetStatusResult, error) {
	return f.setStatusFn(ctx, params)
}

func (f *fakeOrdersService) Cancel(ctx context.Context, params internalorders.CancelParams) (*models.Order, error) {
	return f.cancelFn(ctx, params)
}

func (f *fakeOrdersService) ConfirmDelivery(ctx context.Context, params internalorders.ConfirmDeliveryParams) (*models.Order, error) {
	return f.confirmDeliveryFn(ctx, params)
}

func (f *fakeOrdersService) ExpireStale(ctx context.Context) (*internalorders.ExpireResult, error) {
	return &internalorders.ExpireResult{}, nil
}

func (f *fakeOrdersService) ApplyPaymentOutcomeTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus) error {
	return nil
}

func authedRequest(method, target string, body []byte, userID uuid.UUID, role enums.Role) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	userID := uuid.New()
	svc := &fakeOrdersService{
		createFn: func(ctx context.Context, params internalorders.CreateParams) (*models.Order, error) {
			if params.UserID != userID {
				t.Fatalf("unexpected user %s", params.UserID)
			}
			if len(params.Items) != 1 || params.Items[0].SKU != "RICE-5KG" {
				t.Fatalf("unexpected items %+v", params.Items)
			}
			return &models.Order{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusPending}, nil
		},
	}

	payload, _ := json.Marshal(map[string]any{
		"items":            []map[string]any{{"sku": "RICE-5KG", "qty": 2}},
		"payment_method":   "cod",
		"shipping_address": types.Address{Line1: "12 Market Road", City: "Dhaka", PostalCode: "1207", Country: "BD"},
	})
	req := authedRequest(http.MethodPost, "/orders", payload, userID, enums.RoleCustomer)
	resp := httptest.NewRecorder()
	Create(svc, nil, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeEnvelope(t, resp)
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	svc := &fakeOrdersService{}
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()
	Create(svc, nil, nil)(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc := &fakeOrdersService{}
	payload := []byte(`{"items":[],"payment_method":"cod","shipping_address":{"line1":"a","city":"b","postal_code":"c","country":"BD"}}`)
	req := authedRequest(http.MethodPost, "/orders", payload, uuid.New(), enums.RoleCustomer)
	resp := httptest.NewRecorder()
	Create(svc, nil, nil)(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDetailBlocksOtherCustomers(t *testing.T) {
	owner := uuid.New()
	orderID := uuid.New()
	svc := &fakeOrdersService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: orderID, UserID: owner}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/orders/"+orderID.String(), nil, uuid.New(), enums.RoleCustomer)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	Detail(svc, nil)(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = authedRequest(http.MethodGet, "/orders/"+orderID.String(), nil, uuid.New(), enums.RoleAdmin)
	req = withURLParam(req, "orderId", orderID.String())
	resp = httptest.NewRecorder()
	Detail(svc, nil)(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin should read any order, got %d", resp.Code)
	}
}

func TestSetStatusReturnsDeliveryCodeOnce(t *testing.T) {
	orderID := uuid.New()
	svc := &fakeOrdersService{
		setStatusFn: func(ctx context.Context, params internalorders.SetStatusParams) (*internalorders.SetStatusResult, error) {
			if params.Status != enums.OrderStatusShipped {
				t.Fatalf("unexpected status %s", params.Status)
			}
			return &internalorders.SetStatusResult{
				Order:       &models.Order{ID: orderID, Status: enums.OrderStatusShipped},
				DeliveryOTP: "123456",
			}, nil
		},
	}

	payload := []byte(`{"status":"shipped"}`)
	req := authedRequest(http.MethodPut, "/orders/"+orderID.String()+"/status", payload, uuid.New(), enums.RoleAdmin)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	SetStatus(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeEnvelope(t, resp)
	data := body["data"].(map[string]any)
	if data["deliveryOtp"] != "123456" {
		t.Fatalf("expected delivery code in response, got %v", data)
	}
}

func TestSetStatusRejectsIllegalTransition(t *testing.T) {
	orderID := uuid.New()
	svc := &fakeOrdersService{
		setStatusFn: func(ctx context.Context, params internalorders.SetStatusParams) (*internalorders.SetStatusResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "transition not allowed")
		},
	}

	payload := []byte(`{"status":"processing"}`)
	req := authedRequest(http.MethodPut, "/orders/"+orderID.String()+"/status", payload, uuid.New(), enums.RoleAdmin)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	SetStatus(svc, nil)(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestConfirmDeliveryValidatesCode(t *testing.T) {
	svc := &fakeOrdersService{}
	orderID := uuid.New()

	payload := []byte(`{"otp":"12"}`)
	req := authedRequest(http.MethodPost, "/orders/"+orderID.String()+"/confirm-delivery", payload, uuid.New(), enums.RoleCustomer)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	ConfirmDelivery(svc, nil)(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelPassesReason(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &fakeOrdersService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: orderID, UserID: userID, Status: enums.OrderStatusPending}, nil
		},
		cancelFn: func(ctx context.Context, params internalorders.CancelParams) (*models.Order, error) {
			if params.Reason != "changed my mind" {
				t.Fatalf("reason not forwarded, got %q", params.Reason)
			}
			return &models.Order{ID: orderID, UserID: userID, Status: enums.OrderStatusCancelled}, nil
		},
	}

	payload := []byte(`{"reason":"changed my mind"}`)
	req := authedRequest(http.MethodPost, "/orders/"+orderID.String()+"/cancel", payload, userID, enums.RoleCustomer)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	Cancel(svc, nil)(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

var _ payments.Service = (*noPayments)(nil)

type noPayments struct{}

func (noPayments) Initiate(ctx context.Context, params payments.InitiateParams) (*payments.InitiateResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodePaymentInitFailed, "gateway offline")
}

func (noPayments) Verify(ctx context.Context, params payments.VerifyParams) (*models.Payment, error) {
	return nil, nil
}

func (noPayments) GetStatus(ctx context.Context, orderID uuid.UUID) (*payments.StatusResult, error) {
	return nil, nil
}

func (noPayments) SetStatus(ctx context.Context, params payments.SetStatusParams) (*models.Payment, error) {
	return nil, nil
}

func TestCreateOrderSurfacesInitiationFailure(t *testing.T) {
	userID := uuid.New()
	svc := &fakeOrdersService{
		createFn: func(ctx context.Context, params internalorders.CreateParams) (*models.Order, error) {
			return &models.Order{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusPending}, nil
		},
	}

	payload, _ := json.Marshal(map[string]any{
		"items":            []map[string]any{{"sku": "RICE-5KG", "qty": 1}},
		"payment_method":   "sslcommerz",
		"shipping_address": types.Address{Line1: "12 Market Road", City: "Dhaka", PostalCode: "1207", Country: "BD"},
		"initiate_payment": true,
	})
	req := authedRequest(http.MethodPost, "/orders", payload, userID, enums.RoleCustomer)
	resp := httptest.NewRecorder()
	Create(svc, noPayments{}, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("order creation should survive gateway failure, got %d", resp.Code)
	}
	body := decodeEnvelope(t, resp)
	data := body["data"].(map[string]any)
	if data["paymentError"] != string(pkgerrors.CodePaymentInitFailed) {
		t.Fatalf("expected payment error code, got %v", data)
	}
}
