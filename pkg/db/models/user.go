package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// User holds account identity plus the wallet and loyalty balances that
// settlement mutates. Wallet balance is stored in halalas and only ever
// written through conditional updates in the wallet service.
type User struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string     `gorm:"column:name;not null"`
	Email                string     `gorm:"column:email;not null;uniqueIndex"`
	Phone                string     `gorm:"column:phone;not null;default:''"`
	PasswordHash         string     `gorm:"column:password_hash;not null"`
	Role                 enums.Role `gorm:"column:role;type:user_role;not null;default:'customer'"`
	BranchID             *uuid.UUID `gorm:"column:branch_id;type:uuid"`
	WalletBalanceHalalas int64      `gorm:"column:wallet_balance_halalas;not null;default:0"`
	LoyaltyPoints        int64      `gorm:"column:loyalty_points;not null;default:0"`
	LifetimeSpendHalalas int64      `gorm:"column:lifetime_spend_halalas;not null;default:0"`
	Active               bool       `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
