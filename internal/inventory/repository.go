package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// Repository exposes the stock ledger persistence operations. All writes go
// through guarded UPDATEs so concurrent reservations can never oversell.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetBySKU(ctx context.Context, sku string) (*models.SkuInventory, error)
	EnsureRow(ctx context.Context, sku string) error
	DecrementAvailable(ctx context.Context, sku string, qty int) (bool, error)
	IncrementAvailable(ctx context.Context, sku string, qty int) (bool, error)
	DecrementTotals(ctx context.Context, sku string, qty int) (bool, error)
	AddStock(ctx context.Context, sku string, qty int) error
	SetTotals(ctx context.Context, sku string, total, available int) error

	CreateReservations(ctx context.Context, rows []models.Reservation) error
	FindReservations(ctx context.Context, orderID uuid.UUID, status enums.ReservationStatus) ([]models.Reservation, error)
	TransitionReservations(ctx context.Context, orderID uuid.UUID, from, to enums.ReservationStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns the GORM-backed inventory repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (*models.SkuInventory, error) {
	var row models.SkuInventory
	err := r.db.WithContext(ctx).First(&row, "sku = ?", sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// EnsureRow inserts a zero-stock ledger row if the SKU has none yet.
func (r *repository) EnsureRow(ctx context.Context, sku string) error {
	row := models.SkuInventory{SKU: sku}
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		FirstOrCreate(&row).Error
	return err
}

// DecrementAvailable takes qty units out of the sellable pool. Returns false
// when available stock is short; the row is left untouched in that case.
func (r *repository) DecrementAvailable(ctx context.Context, sku string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SkuInventory{}).
		Where("sku = ? AND available_stock >= ?", sku, qty).
		UpdateColumn("available_stock", gorm.Expr("available_stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementAvailable(ctx context.Context, sku string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SkuInventory{}).
		Where("sku = ?", sku).
		UpdateColumn("available_stock", gorm.Expr("available_stock + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementTotals removes committed units from the warehouse count.
func (r *repository) DecrementTotals(ctx context.Context, sku string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SkuInventory{}).
		Where("sku = ? AND total_stock >= ?", sku, qty).
		UpdateColumn("total_stock", gorm.Expr("total_stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AddStock provisions new units: both totals and the sellable pool grow.
func (r *repository) AddStock(ctx context.Context, sku string, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.SkuInventory{}).
		Where("sku = ?", sku).
		UpdateColumns(map[string]any{
			"total_stock":     gorm.Expr("total_stock + ?", qty),
			"available_stock": gorm.Expr("available_stock + ?", qty),
		}).Error
}

func (r *repository) SetTotals(ctx context.Context, sku string, total, available int) error {
	return r.db.WithContext(ctx).
		Model(&models.SkuInventory{}).
		Where("sku = ?", sku).
		UpdateColumns(map[string]any{
			"total_stock":     total,
			"available_stock": available,
		}).Error
}

func (r *repository) CreateReservations(ctx context.Context, rows []models.Reservation) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) FindReservations(ctx context.Context, orderID uuid.UUID, status enums.ReservationStatus) ([]models.Reservation, error) {
	var rows []models.Reservation
	query := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// TransitionReservations flips every reservation for the order from one
// status to another and reports how many rows moved.
func (r *repository) TransitionReservations(ctx context.Context, orderID uuid.UUID, from, to enums.ReservationStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("order_id = ? AND status = ?", orderID, from).
		UpdateColumn("status", to)
	return res.RowsAffected, res.Error
}
