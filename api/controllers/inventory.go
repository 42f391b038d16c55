package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/api/responses"
	"github.com/greenbasket/greenbasket-backend/api/validators"
	"github.com/greenbasket/greenbasket-backend/internal/inventory"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

type reserveStockRequest struct {
	OrderID string             `json:"order_id" validate:"required,uuid4"`
	Items   []reserveStockItem `json:"items" validate:"required,min=1,dive"`
}

type reserveStockItem struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,gt=0"`
}

type orderRefRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid4"`
}

type adjustStockRequest struct {
	SKU  string `json:"sku" validate:"required"`
	Type string `json:"type" validate:"required"`
	Qty  int    `json:"qty"`
}

type commitStockResponse struct {
	CommittedCount int64 `json:"committedCount"`
}

type releaseStockResponse struct {
	ReleasedCount int64          `json:"releasedCount"`
	Restored      map[string]int `json:"restored"`
}

// InventoryBySKU reads the ledger row for one SKU.
func InventoryBySKU(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		stock, err := svc.GetBySKU(r.Context(), sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

// ReserveStock takes holds for an order.
func ReserveStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload reserveStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		items := make([]inventory.ReserveItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, inventory.ReserveItem{SKU: item.SKU, Qty: item.Qty})
		}

		reservations, err := svc.Reserve(r.Context(), inventory.ReserveParams{OrderID: orderID, Items: items})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reservations)
	}
}

// CommitStock finalizes an order's holds as a permanent deduction.
func CommitStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderRefRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := svc.Commit(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitStockResponse{CommittedCount: result.CommittedCount})
	}
}

// ReleaseStock returns an order's holds to the sellable pool.
func ReleaseStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderRefRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := svc.Release(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, releaseStockResponse{
			ReleasedCount: result.ReleasedCount,
			Restored:      result.Restored,
		})
	}
}

// AdjustStock is the admin correction endpoint.
func AdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stock, err := svc.AdjustStock(r.Context(), inventory.AdjustParams{
			SKU:  payload.SKU,
			Type: enums.StockAdjustmentType(strings.ToLower(strings.TrimSpace(payload.Type))),
			Qty:  payload.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}
