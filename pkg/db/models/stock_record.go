package models

import (
	"time"

	"github.com/google/uuid"
)

// StockRecord is the per-location quantity for a product or variant. One
// unified table covers branches and the central warehouse alike; quantity
// never goes negative because the inventory repository only writes it with
// conditional decrements.
type StockRecord struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BranchID      uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:idx_stock_branch_product"`
	ProductID     uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_stock_branch_product"`
	VariantID     *uuid.UUID `gorm:"column:variant_id;type:uuid;uniqueIndex:idx_stock_branch_product"`
	Quantity      int        `gorm:"column:quantity;not null;default:0"`
	MinStockLevel int        `gorm:"column:min_stock_level;not null;default:0"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
