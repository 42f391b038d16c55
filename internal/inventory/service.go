package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

// ReserveItem is one requested stock hold line.
type ReserveItem struct {
	SKU string
	Qty int
}

// ReserveParams groups the inputs for taking stock holds for an order.
type ReserveParams struct {
	OrderID uuid.UUID
	Items   []ReserveItem
}

// AdjustParams describes an administrative stock correction.
type AdjustParams struct {
	SKU  string
	Type enums.StockAdjustmentType
	Qty  int
}

// CommitResult reports how many holds were finalized.
type CommitResult struct {
	CommittedCount int64
}

// ReleaseResult reports the holds returned to the sellable pool, restored
// quantities summed per SKU.
type ReleaseResult struct {
	ReleasedCount int64
	Restored      map[string]int
}

// Service owns the stock ledger and reservation lifecycle.
type Service interface {
	Reserve(ctx context.Context, params ReserveParams) ([]models.Reservation, error)
	Commit(ctx context.Context, orderID uuid.UUID) (*CommitResult, error)
	Release(ctx context.Context, orderID uuid.UUID) (*ReleaseResult, error)
	AdjustStock(ctx context.Context, params AdjustParams) (*models.SkuInventory, error)
	GetBySKU(ctx context.Context, sku string) (*models.SkuInventory, error)

	// Tx variants run inside a caller-owned transaction so order creation,
	// cancellation and delivery can move stock and order state atomically.
	ReserveTx(ctx context.Context, tx *gorm.DB, params ReserveParams) ([]models.Reservation, error)
	CommitTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*CommitResult, error)
	ReleaseTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*ReleaseResult, error)
}

// Deps wires the inventory service.
type Deps struct {
	DB   *db.Client
	Repo Repository
	Logg *logger.Logger
}

type service struct {
	db   *db.Client
	repo Repository
	logg *logger.Logger
}

// NewService validates dependencies and returns the inventory service.
func NewService(deps Deps) (Service, error) {
	if deps.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory db client required")
	}
	if deps.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if deps.Logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory logger required")
	}
	return &service{db: deps.DB, repo: deps.Repo, logg: deps.Logg}, nil
}

func (s *service) Reserve(ctx context.Context, params ReserveParams) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		rows, txErr = s.ReserveTx(ctx, tx, params)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) ReserveTx(ctx context.Context, tx *gorm.DB, params ReserveParams) ([]models.Reservation, error) {
	if params.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(params.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	// Line items may repeat a SKU; holds are taken per SKU with the
	// quantities summed.
	merged := make([]ReserveItem, 0, len(params.Items))
	index := make(map[string]int, len(params.Items))
	for _, item := range params.Items {
		if item.SKU == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive").
				WithDetails(map[string]any{"sku": item.SKU, "qty": item.Qty})
		}
		if at, ok := index[item.SKU]; ok {
			merged[at].Qty += item.Qty
			continue
		}
		index[item.SKU] = len(merged)
		merged = append(merged, item)
	}

	repo := s.repo.WithTx(tx)

	// Any prior reservation row for the order, whatever its status, means
	// this order already went through a reserve once.
	existing, err := repo.FindReservations(ctx, params.OrderID, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking existing reservations")
	}
	if len(existing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeOrderAlreadyReserved, "order already has reservations")
	}

	rows := make([]models.Reservation, 0, len(merged))
	for _, item := range merged {
		if err := repo.EnsureRow(ctx, item.SKU); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensuring inventory row")
		}
		ok, err := repo.DecrementAvailable(ctx, item.SKU, item.Qty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserving stock")
		}
		if !ok {
			// Re-read so the caller learns how much is actually left. The
			// surrounding transaction rolls back the holds taken so far.
			row, readErr := repo.GetBySKU(ctx, item.SKU)
			available := 0
			if readErr == nil && row != nil {
				available = row.AvailableStock
			}
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"sku":       item.SKU,
					"requested": item.Qty,
					"available": available,
				})
		}
		rows = append(rows, models.Reservation{
			ID:      uuid.New(),
			OrderID: params.OrderID,
			SKU:     item.SKU,
			Qty:     item.Qty,
			Status:  enums.ReservationStatusReserved,
		})
	}

	if err := repo.CreateReservations(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting reservations")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": params.OrderID.String(),
		"lines":    len(rows),
	})
	s.logg.Info(logCtx, "stock reserved")
	return rows, nil
}

func (s *service) Commit(ctx context.Context, orderID uuid.UUID) (*CommitResult, error) {
	var result *CommitResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.CommitTx(ctx, tx, orderID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CommitTx finalizes the holds for an order: reserved units leave the
// warehouse count and the reservation rows flip to COMMITTED.
func (s *service) CommitTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*CommitResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	repo := s.repo.WithTx(tx)

	reserved, err := repo.FindReservations(ctx, orderID, enums.ReservationStatusReserved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading reservations")
	}
	if len(reserved) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeReservationsNotFound, "no active reservations for order")
	}

	for _, row := range reserved {
		ok, err := repo.DecrementTotals(ctx, row.SKU, row.Qty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "committing stock")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger total below committed quantity").
				WithDetails(map[string]any{"sku": row.SKU})
		}
	}

	moved, err := repo.TransitionReservations(ctx, orderID, enums.ReservationStatusReserved, enums.ReservationStatusCommitted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking reservations committed")
	}
	if moved == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeReservationsNotFound, "no active reservations for order")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "lines": moved})
	s.logg.Info(logCtx, "reservations committed")
	return &CommitResult{CommittedCount: moved}, nil
}

func (s *service) Release(ctx context.Context, orderID uuid.UUID) (*ReleaseResult, error) {
	var result *ReleaseResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.ReleaseTx(ctx, tx, orderID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseTx returns every reserved unit to the sellable pool exactly once.
func (s *service) ReleaseTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*ReleaseResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	repo := s.repo.WithTx(tx)

	reserved, err := repo.FindReservations(ctx, orderID, enums.ReservationStatusReserved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading reservations")
	}
	if len(reserved) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeReservationsNotFound, "no active reservations for order")
	}

	// Flip status first so a concurrent release finds nothing to restore.
	moved, err := repo.TransitionReservations(ctx, orderID, enums.ReservationStatusReserved, enums.ReservationStatusReleased)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking reservations released")
	}
	if moved == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeReservationsNotFound, "no active reservations for order")
	}

	// Restore grouped per SKU so repeated SKUs touch their row once.
	restored := make(map[string]int, len(reserved))
	for _, row := range reserved {
		restored[row.SKU] += row.Qty
	}
	for sku, qty := range restored {
		if _, err := repo.IncrementAvailable(ctx, sku, qty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restoring stock")
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "lines": moved})
	s.logg.Info(logCtx, "reservations released")
	return &ReleaseResult{ReleasedCount: moved, Restored: restored}, nil
}

func (s *service) AdjustStock(ctx context.Context, params AdjustParams) (*models.SkuInventory, error) {
	if params.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidType, "unknown adjustment type").
			WithDetails(map[string]any{"type": string(params.Type)})
	}
	if params.Qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must not be negative").
			WithDetails(map[string]any{"qty": params.Qty})
	}

	var result *models.SkuInventory
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		row, err := repo.GetBySKU(ctx, params.SKU)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory row")
		}
		if row == nil {
			if err := repo.EnsureRow(ctx, params.SKU); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating inventory row")
			}
			row = &models.SkuInventory{SKU: params.SKU}
		}

		switch params.Type {
		case enums.StockAdjustmentAdd:
			if err := repo.AddStock(ctx, params.SKU, params.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adding stock")
			}
		case enums.StockAdjustmentSubtract:
			// Both counters move down in lockstep, each clamped at zero.
			total := clampZero(row.TotalStock - params.Qty)
			available := clampZero(row.AvailableStock - params.Qty)
			if err := repo.SetTotals(ctx, params.SKU, total, available); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subtracting stock")
			}
		case enums.StockAdjustmentSet:
			// Outstanding holds survive a set: the sellable pool becomes the
			// new total minus whatever is still reserved, clamped at zero.
			outstanding := row.TotalStock - row.AvailableStock
			if err := repo.SetTotals(ctx, params.SKU, params.Qty, clampZero(params.Qty-outstanding)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "setting stock")
			}
		}

		result, err = repo.GetBySKU(ctx, params.SKU)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading inventory row")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sku":  params.SKU,
		"type": string(params.Type),
		"qty":  params.Qty,
	})
	s.logg.Info(logCtx, "stock adjusted")
	return result, nil
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func (s *service) GetBySKU(ctx context.Context, sku string) (*models.SkuInventory, error) {
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	row, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory row")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInventoryNotFound, "inventory row not found").
			WithDetails(map[string]any{"sku": sku})
	}
	return row, nil
}
