package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// StockTransfer moves quantity between two locations. Source stock is
// deducted when the transfer is created; completion credits the destination
// and cancellation restores the source. Terminal rows never transition again.
type StockTransfer struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromBranchID uuid.UUID            `gorm:"column:from_branch_id;type:uuid;not null;index"`
	ToBranchID   uuid.UUID            `gorm:"column:to_branch_id;type:uuid;not null;index"`
	ProductID    uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	VariantID    *uuid.UUID           `gorm:"column:variant_id;type:uuid"`
	Quantity     int                  `gorm:"column:quantity;not null"`
	Status       enums.TransferStatus `gorm:"column:status;type:transfer_status;not null;default:'pending'"`
	RequestedBy  uuid.UUID            `gorm:"column:requested_by;type:uuid;not null"`
	ResolvedBy   *uuid.UUID           `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt   *time.Time           `gorm:"column:resolved_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
