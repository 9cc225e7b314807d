package enums

import "fmt"

// WalletTransactionType labels an entry in the append-only wallet ledger.
type WalletTransactionType string

const (
	WalletTransactionDeposit    WalletTransactionType = "deposit"
	WalletTransactionWithdrawal WalletTransactionType = "withdrawal"
	WalletTransactionPayment    WalletTransactionType = "payment"
	WalletTransactionRefund     WalletTransactionType = "refund"
	WalletTransactionCashback   WalletTransactionType = "cashback"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionDeposit,
	WalletTransactionWithdrawal,
	WalletTransactionPayment,
	WalletTransactionRefund,
	WalletTransactionCashback,
}

// IsValid reports whether the value is a known WalletTransactionType.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsCredit reports whether the entry adds funds to the wallet.
func (w WalletTransactionType) IsCredit() bool {
	switch w {
	case WalletTransactionDeposit, WalletTransactionRefund, WalletTransactionCashback:
		return true
	default:
		return false
	}
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
