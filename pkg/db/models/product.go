package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog row checkout snapshots prices from. Catalog CRUD is
// owned by the catalog service; the fulfillment core only reads it.
type Product struct {
	SKU       string          `gorm:"column:sku;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
