package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/api/middleware"
	"github.com/greenbasket/greenbasket-backend/api/responses"
	"github.com/greenbasket/greenbasket-backend/api/validators"
	internalorders "github.com/greenbasket/greenbasket-backend/internal/orders"
	"github.com/greenbasket/greenbasket-backend/internal/payments"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
	"github.com/greenbasket/greenbasket-backend/pkg/types"
)

type createOrderRequest struct {
	Items           []createOrderItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string            `json:"payment_method" validate:"required"`
	ShippingAddress *types.Address    `json:"shipping_address" validate:"required"`
	// InitiatePayment opens a gateway session in the same call for methods
	// that need one, so the storefront gets a redirect URL immediately.
	InitiatePayment bool   `json:"initiate_payment"`
	SourceToken     string `json:"source_token"`
}

type createOrderItem struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,gt=0"`
}

type createOrderResponse struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
	// PaymentError carries the initiation failure code when the order itself
	// was created but the gateway session could not be opened. The client
	// retries through the payment initiate endpoint.
	PaymentError string `json:"paymentError,omitempty"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

type setStatusResponse struct {
	Order       *models.Order `json:"order"`
	DeliveryOTP string        `json:"deliveryOtp,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type confirmDeliveryRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

// Create places an order for the authenticated customer.
func Create(svc internalorders.Service, paymentsSvc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := enums.PaymentMethod(strings.ToLower(strings.TrimSpace(payload.PaymentMethod)))
		items := make([]internalorders.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, internalorders.ItemInput{SKU: item.SKU, Qty: item.Qty})
		}

		order, err := svc.Create(r.Context(), internalorders.CreateParams{
			UserID:          userID,
			Items:           items,
			PaymentMethod:   method,
			ShippingAddress: payload.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := createOrderResponse{Order: order}
		if payload.InitiatePayment && method.RequiresGateway() && paymentsSvc != nil {
			result, err := paymentsSvc.Initiate(r.Context(), payments.InitiateParams{
				OrderID:     order.ID,
				Gateway:     method,
				SourceToken: payload.SourceToken,
			})
			if err != nil {
				code := string(pkgerrors.CodePaymentInitFailed)
				if typed := pkgerrors.As(err); typed != nil {
					code = string(typed.Code())
				}
				out.PaymentError = code
			} else {
				out.RedirectURL = result.RedirectURL
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// List pages through the caller's own orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), internalorders.ListParams{
			UserID: userID,
			Status: enums.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one order after an ownership check. Admins can read any order.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadOwnedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// History returns the append-only status audit trail.
func History(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadOwnedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.GetHistory(r.Context(), order.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// SetStatus is the admin lifecycle transition. The delivery code is returned
// exactly once, on the transition into shipped.
func SetStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetStatus(r.Context(), internalorders.SetStatusParams{
			OrderID: orderID,
			Status:  enums.OrderStatus(strings.ToLower(strings.TrimSpace(payload.Status))),
			Notes:   payload.Notes,
			ActorID: &actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setStatusResponse{Order: result.Order, DeliveryOTP: result.DeliveryOTP})
	}
}

// Cancel releases the order's stock holds and closes it out.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadOwnedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		cancelled, err := svc.Cancel(r.Context(), internalorders.CancelParams{
			OrderID: order.ID,
			ActorID: &actorID,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cancelled)
	}
}

// ConfirmDelivery closes the order with the customer's one-time code.
func ConfirmDelivery(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmDelivery(r.Context(), internalorders.ConfirmDeliveryParams{
			OrderID: orderID,
			OTP:     payload.OTP,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func loadOwnedOrder(r *http.Request, svc internalorders.Service) (*models.Order, error) {
	userID, err := requireUserID(r)
	if err != nil {
		return nil, err
	}
	orderID, err := parseOrderID(r)
	if err != nil {
		return nil, err
	}

	order, err := svc.Get(r.Context(), orderID)
	if err != nil {
		return nil, err
	}

	role := middleware.RoleFromContext(r.Context())
	if order.UserID != userID && role != string(enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
	return order, nil
}
