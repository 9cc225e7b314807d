package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// WalletTransaction is an append-only ledger row. BalanceAfterHalalas is the
// wallet balance as of this entry, written in the same transaction as the
// conditional balance update so the ledger and the balance cannot diverge.
type WalletTransaction struct {
	ID                  uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	Type                enums.WalletTransactionType `gorm:"column:type;type:wallet_transaction_type;not null"`
	AmountHalalas       int64                       `gorm:"column:amount_halalas;not null"`
	BalanceAfterHalalas int64                       `gorm:"column:balance_after_halalas;not null"`
	OrderID             *uuid.UUID                  `gorm:"column:order_id;type:uuid;index"`
	Reference           string                      `gorm:"column:reference;not null;default:''"`
	CreatedAt           time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
