package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// Coupon is a discount or cashback code. Value semantics depend on Type:
// percentage of subtotal, fixed halalas, or cashback percentage credited to
// the wallet after payment. UsageCount is only incremented through the
// conditional update in the coupons repository.
type Coupon struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                  string           `gorm:"column:code;not null;uniqueIndex"`
	Type                  enums.CouponType `gorm:"column:type;type:coupon_type;not null"`
	Value                 int64            `gorm:"column:value;not null"`
	MinOrderHalalas       int64            `gorm:"column:min_order_halalas;not null;default:0"`
	MaxCashbackHalalas    int64            `gorm:"column:max_cashback_halalas;not null;default:0"`
	UsageLimit            int              `gorm:"column:usage_limit;not null;default:0"`
	UsageCount            int              `gorm:"column:usage_count;not null;default:0"`
	Active                bool             `gorm:"column:active;not null;default:true"`
	ExpiresAt             *time.Time       `gorm:"column:expires_at"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
