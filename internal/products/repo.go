package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
)

// Repository reads the catalog rows checkout snapshots from. Catalog writes
// happen in the catalog service, not here.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a products repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBySKUs loads the active products for the given SKUs, keyed by SKU.
// Missing or inactive SKUs surface as PRODUCT_NOT_FOUND.
func (r *Repository) FindBySKUs(ctx context.Context, skus []string) (map[string]models.Product, error) {
	if len(skus) == 0 {
		return map[string]models.Product{}, nil
	}

	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("sku IN ? AND active = ?", skus, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	found := make(map[string]models.Product, len(rows))
	for _, row := range rows {
		found[row.SKU] = row
	}
	for _, sku := range skus {
		if _, ok := found[sku]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
				WithDetails(map[string]any{"sku": sku})
		}
	}
	return found, nil
}
