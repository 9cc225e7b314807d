package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/types"
)

// Order is the settlement aggregate. Items and the shipping address are
// frozen snapshots; all money columns are halalas copied from the pricing
// breakdown at creation. Status and PaymentStatus only move through the
// conditional updates in the orders repository.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	BranchID        uuid.UUID             `gorm:"column:branch_id;type:uuid;not null;index"`
	Items           types.OrderItems      `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ShippingAddress *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Status          enums.OrderStatus     `gorm:"column:status;type:order_status;not null;default:'new'"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method;not null"`
	CouponCode      *string               `gorm:"column:coupon_code"`
	SubtotalHalalas int64                 `gorm:"column:subtotal_halalas;not null"`
	TaxHalalas      int64                 `gorm:"column:tax_halalas;not null"`
	ShippingHalalas int64                 `gorm:"column:shipping_halalas;not null"`
	DiscountHalalas int64                 `gorm:"column:discount_halalas;not null;default:0"`
	CashbackHalalas int64                 `gorm:"column:cashback_halalas;not null;default:0"`
	TotalHalalas    int64                 `gorm:"column:total_halalas;not null"`
	LoyaltyPoints   int64                 `gorm:"column:loyalty_points;not null;default:0"`
	FailureReason   *string               `gorm:"column:failure_reason"`
	ShiftID         *uuid.UUID            `gorm:"column:shift_id;type:uuid;index"`
	PaidAt          *time.Time            `gorm:"column:paid_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
