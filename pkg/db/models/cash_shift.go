package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// CashShift is a cashier's drawer session. A cashier holds at most one open
// shift, enforced by a partial unique index on (cashier_id) where status is
// open. Expected cash at close is opening float plus cash sales recorded
// against the shift.
type CashShift struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CashierID           uuid.UUID         `gorm:"column:cashier_id;type:uuid;not null;index"`
	BranchID            uuid.UUID         `gorm:"column:branch_id;type:uuid;not null;index"`
	Status              enums.ShiftStatus `gorm:"column:status;type:shift_status;not null;default:'open'"`
	OpeningCashHalalas  int64             `gorm:"column:opening_cash_halalas;not null"`
	CashSalesHalalas    int64             `gorm:"column:cash_sales_halalas;not null;default:0"`
	ExpectedCashHalalas *int64            `gorm:"column:expected_cash_halalas"`
	CountedCashHalalas  *int64            `gorm:"column:counted_cash_halalas"`
	VarianceHalalas     *int64            `gorm:"column:variance_halalas"`
	OpenedAt            time.Time         `gorm:"column:opened_at;not null"`
	ClosedAt            *time.Time        `gorm:"column:closed_at"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
