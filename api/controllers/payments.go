package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/api/middleware"
	"github.com/greenbasket/greenbasket-backend/api/responses"
	"github.com/greenbasket/greenbasket-backend/api/validators"
	"github.com/greenbasket/greenbasket-backend/internal/payments"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

type initiatePaymentRequest struct {
	SourceToken string `json:"source_token"`
}

type setPaymentStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

// InitiatePayment opens a gateway session for an existing order.
func InitiatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parsePaymentOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gateway := enums.PaymentMethod(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "gateway"))))
		if !gateway.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment gateway"))
			return
		}

		var payload initiatePaymentRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Initiate(r.Context(), payments.InitiateParams{
			OrderID:     orderID,
			Gateway:     gateway,
			SourceToken: payload.SourceToken,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"payment":     result.Payment,
			"redirectUrl": result.RedirectURL,
		})
	}
}

// VerifyPayment is the gateway-initiated browser callback. It reconciles the
// payment and answers with a redirect to the storefront rather than the JSON
// envelope, because the caller is a browser mid-redirect, not an API client.
func VerifyPayment(svc payments.Service, frontend config.FrontendConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		txnID := strings.TrimSpace(query.Get("tran_id"))
		if txnID == "" {
			txnID = strings.TrimSpace(query.Get("txn_id"))
		}
		ref := strings.TrimSpace(query.Get("val_id"))
		if ref == "" {
			ref = strings.TrimSpace(query.Get("ref"))
		}

		payment, err := svc.Verify(r.Context(), payments.VerifyParams{TxnID: txnID, GatewayRef: ref})
		if err != nil {
			if logg != nil {
				ctx := logg.WithFields(r.Context(), map[string]any{"txn_id": txnID})
				logg.Error(ctx, "payment.verify", err)
			}
			redirectToFrontend(w, r, frontend, frontend.PaymentFailureURL, "", verifyErrorCode(err))
			return
		}

		if payment.Status == enums.PaymentStatusPaid {
			redirectToFrontend(w, r, frontend, frontend.PaymentSuccessURL, payment.OrderID.String(), "")
			return
		}
		redirectToFrontend(w, r, frontend, frontend.PaymentFailureURL, payment.OrderID.String(), "")
	}
}

// PaymentStatus reports the money state of one order.
func PaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parsePaymentOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetStatus(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SetPaymentStatus is the back-office override, e.g. settling cash on delivery.
func SetPaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "paymentId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id"))
			return
		}

		var payload setPaymentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var actorID *uuid.UUID
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if parsed, err := uuid.Parse(raw); err == nil {
				actorID = &parsed
			}
		}

		payment, err := svc.SetStatus(r.Context(), payments.SetStatusParams{
			PaymentID: paymentID,
			Status:    enums.PaymentStatus(strings.ToLower(strings.TrimSpace(payload.Status))),
			Reason:    payload.Reason,
			ActorID:   actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

func parsePaymentOrderID(r *http.Request) (uuid.UUID, error) {
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

func verifyErrorCode(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeVerificationFailed)
}

func redirectToFrontend(w http.ResponseWriter, r *http.Request, frontend config.FrontendConfig, path, orderID, errorCode string) {
	base := strings.TrimRight(strings.TrimSpace(frontend.BaseURL), "/")
	target := base + path
	params := url.Values{}
	if orderID != "" {
		params.Set("orderId", orderID)
	}
	if errorCode != "" {
		params.Set("error", errorCode)
	}
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}
	http.Redirect(w, r, target, http.StatusFound)
}
