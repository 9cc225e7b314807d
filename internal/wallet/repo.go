package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

// Repository manages the wallet balance column and its append-only ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// DebitBalance subtracts amount only when the balance covers it. Returns
	// false when the conditional update matched no row.
	DebitBalance(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
	CreditBalance(ctx context.Context, userID uuid.UUID, amount int64) error
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error)
	SumLedger(ctx context.Context, userID uuid.UUID) (int64, error)
	SetBalance(ctx context.Context, userID uuid.UUID, balance int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) DebitBalance(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND wallet_balance_halalas >= ?", userID, amount).
		Update("wallet_balance_halalas", gorm.Expr("wallet_balance_halalas - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreditBalance(ctx context.Context, userID uuid.UUID, amount int64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance_halalas", gorm.Expr("wallet_balance_halalas + ?", amount)).Error
}

func (r *repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("wallet_balance_halalas").First(&user, "id = ?", userID).Error; err != nil {
		return 0, err
	}
	return user.WalletBalanceHalalas, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WalletTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumLedger(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(CASE WHEN type IN ('deposit', 'refund', 'cashback') THEN amount_halalas ELSE -amount_halalas END), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SetBalance(ctx context.Context, userID uuid.UUID, balance int64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance_halalas", balance).Error
}
