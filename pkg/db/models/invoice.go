package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/types"
)

// Invoice is the fiscal document generated when an order settles. Lines carry
// their own per-line tax recompute, so the invoice total may drift from the
// order total by rounding; that drift is accepted rather than reconciled.
type Invoice struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number        string           `gorm:"column:number;not null;uniqueIndex"`
	OrderID       uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	UserID        uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Lines         types.OrderItems `gorm:"column:lines;type:jsonb;serializer:json;not null"`
	TaxHalalas    int64            `gorm:"column:tax_halalas;not null"`
	TotalHalalas  int64            `gorm:"column:total_halalas;not null"`
	IssuedAt      time.Time        `gorm:"column:issued_at;not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
}
