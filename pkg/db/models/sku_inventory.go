package models

import "time"

// SkuInventory is the stock ledger row for one SKU. AvailableStock is the
// sellable pool; TotalStock counts units ever provisioned. Rows are created
// lazily on first reservation or adjustment and never deleted.
type SkuInventory struct {
	SKU            string    `gorm:"column:sku;primaryKey"`
	TotalStock     int       `gorm:"column:total_stock;not null;default:0"`
	AvailableStock int       `gorm:"column:available_stock;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SkuInventory) TableName() string { return "sku_inventories" }
