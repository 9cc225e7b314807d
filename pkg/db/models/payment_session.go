package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// PaymentSession is the durable record of a redirect payment attempt. The row
// outlives its Redis TTL mirror, so a webhook arriving after process restart
// can still be matched to an order. ProviderRef is the gateway-side id.
type PaymentSession struct {
	ID           uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	UserID       uuid.UUID                  `gorm:"column:user_id;type:uuid;not null"`
	Method       enums.PaymentMethod        `gorm:"column:method;type:payment_method;not null"`
	Status       enums.PaymentSessionStatus `gorm:"column:status;type:payment_session_status;not null;default:'initiated'"`
	ProviderRef  string                     `gorm:"column:provider_ref;not null;default:'';index"`
	RedirectURL  string                     `gorm:"column:redirect_url;not null;default:''"`
	AmountHalalas int64                     `gorm:"column:amount_halalas;not null"`
	FailureCode  *string                    `gorm:"column:failure_code"`
	ExpiresAt    time.Time                  `gorm:"column:expires_at;not null"`
	CreatedAt    time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
