package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// Repository persists payment rows. Status changes toward paid go through a
// guarded UPDATE so a verify replay can never double-apply.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByRef(ctx context.Context, ref string) (*models.Payment, error)
	FindPending(ctx context.Context, orderID uuid.UUID, gateway enums.PaymentMethod) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)

	// MarkPaid latches the row into paid exactly once. The returned bool is
	// false when the row was already paid.
	MarkPaid(ctx context.Context, id uuid.UUID, txnID string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	SetStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, reason *string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns the GORM-backed payments repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByRef resolves a callback reference against both the current txn id and
// the original local reference, since gateways retry with either.
func (r *repository) FindByRef(ctx context.Context, ref string) (*models.Payment, error) {
	return r.findOne(ctx, "txn_id = ? OR local_ref = ?", ref, ref)
}

func (r *repository) FindPending(ctx context.Context, orderID uuid.UUID, gateway enums.PaymentMethod) (*models.Payment, error) {
	return r.findOne(ctx, "order_id = ? AND gateway = ? AND status = ?", orderID, gateway, enums.PaymentStatusPending)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, append([]any{query}, args...)...).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, txnID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status <> ?", id, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"status":         enums.PaymentStatusPaid,
			"txn_id":         txnID,
			"failure_reason": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":         enums.PaymentStatusFailed,
			"failure_reason": reason,
		}).Error
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, reason *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         status,
			"failure_reason": reason,
		}).Error
}
