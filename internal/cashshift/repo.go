package cashshift

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

// Repository manages persistence for cash shifts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shift *models.CashShift) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CashShift, error)
	GetOpenByCashier(ctx context.Context, cashierID uuid.UUID) (*models.CashShift, error)
	// AddCashSale accumulates a cash order total onto the open shift.
	AddCashSale(ctx context.Context, id uuid.UUID, amountHalalas int64) (bool, error)
	// Close settles an open shift with the counted cash. Expected cash and
	// the variance are computed inside the update so a cash sale landing
	// just before the close is still included in the snapshot.
	Close(ctx context.Context, id uuid.UUID, counted int64, closedAt time.Time) (bool, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.CashShift, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a shift repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shift *models.CashShift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CashShift, error) {
	var shift models.CashShift
	if err := r.db.WithContext(ctx).First(&shift, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *repository) GetOpenByCashier(ctx context.Context, cashierID uuid.UUID) (*models.CashShift, error) {
	var shift models.CashShift
	err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND status = ?", cashierID, enums.ShiftStatusOpen).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *repository) AddCashSale(ctx context.Context, id uuid.UUID, amountHalalas int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.CashShift{}).
		Where("id = ? AND status = ?", id, enums.ShiftStatusOpen).
		Update("cash_sales_halalas", gorm.Expr("cash_sales_halalas + ?", amountHalalas))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Close(ctx context.Context, id uuid.UUID, counted int64, closedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.CashShift{}).
		Where("id = ? AND status = ?", id, enums.ShiftStatusOpen).
		Updates(map[string]any{
			"status":                enums.ShiftStatusClosed,
			"expected_cash_halalas": gorm.Expr("opening_cash_halalas + cash_sales_halalas"),
			"counted_cash_halalas":  counted,
			"variance_halalas":      gorm.Expr("? - (opening_cash_halalas + cash_sales_halalas)", counted),
			"closed_at":             closedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.CashShift, error) {
	query := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
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

	var rows []models.CashShift
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
