package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the sellable catalog entry. Prices live in halalas; per-location
// quantities live in StockRecord rows, never on the product itself.
type Product struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU          string    `gorm:"column:sku;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description;not null;default:''"`
	PriceHalalas int64     `gorm:"column:price_halalas;not null"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// ProductVariant is an optional size/color variation. PriceDeltaHalalas is
// added to the parent product price at checkout time.
type ProductVariant struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name              string    `gorm:"column:name;not null"`
	PriceDeltaHalalas int64     `gorm:"column:price_delta_halalas;not null;default:0"`
	Active            bool      `gorm:"column:active;not null;default:true"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
