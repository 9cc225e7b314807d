package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

// StockKey identifies one stock row: a product (optionally a variant) at a
// location.
type StockKey struct {
	BranchID  uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
}

// Repository manages stock rows and transfer rows. All quantity writes are
// conditional updates so concurrent decrements can never drive stock negative.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetStock(ctx context.Context, key StockKey) (*models.StockRecord, error)
	UpsertStock(ctx context.Context, record *models.StockRecord) error
	// AddQuantity adjusts stock by delta. For negative deltas the update only
	// applies while the resulting quantity stays non-negative; returns false
	// when it would not.
	AddQuantity(ctx context.Context, key StockKey, delta int) (bool, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error)
	ListLowStock(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error)

	CreateTransfer(ctx context.Context, transfer *models.StockTransfer) error
	GetTransfer(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error)
	// TransitionTransfer moves a pending transfer to a terminal status.
	// Returns false when the row was no longer pending.
	TransitionTransfer(ctx context.Context, id uuid.UUID, to enums.TransferStatus, resolvedBy uuid.UUID) (bool, error)
	ListTransfers(ctx context.Context, branchID *uuid.UUID, params pagination.Params) ([]models.StockTransfer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func applyStockKey(query *gorm.DB, key StockKey) *gorm.DB {
	query = query.Where("branch_id = ? AND product_id = ?", key.BranchID, key.ProductID)
	if key.VariantID == nil {
		return query.Where("variant_id IS NULL")
	}
	return query.Where("variant_id = ?", *key.VariantID)
}

func (r *repository) GetStock(ctx context.Context, key StockKey) (*models.StockRecord, error) {
	var record models.StockRecord
	err := applyStockKey(r.db.WithContext(ctx), key).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) UpsertStock(ctx context.Context, record *models.StockRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "branch_id"}, {Name: "product_id"}, {Name: "variant_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "min_stock_level", "updated_at"}),
	}).Create(record).Error
}

func (r *repository) AddQuantity(ctx context.Context, key StockKey, delta int) (bool, error) {
	query := applyStockKey(r.db.WithContext(ctx).Model(&models.StockRecord{}), key)
	if delta < 0 {
		query = query.Where("quantity >= ?", -delta)
	}
	res := query.Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error) {
	var rows []models.StockRecord
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("product_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListLowStock(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error) {
	var rows []models.StockRecord
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND quantity <= min_stock_level", branchID).
		Order("quantity ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateTransfer(ctx context.Context, transfer *models.StockTransfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *repository) GetTransfer(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	var transfer models.StockTransfer
	if err := r.db.WithContext(ctx).First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *repository) TransitionTransfer(ctx context.Context, id uuid.UUID, to enums.TransferStatus, resolvedBy uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.StockTransfer{}).
		Where("id = ? AND status = ?", id, enums.TransferStatusPending).
		Updates(map[string]any{
			"status":      to,
			"resolved_by": resolvedBy,
			"resolved_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListTransfers(ctx context.Context, branchID *uuid.UUID, params pagination.Params) ([]models.StockTransfer, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if branchID != nil {
		query = query.Where("from_branch_id = ? OR to_branch_id = ?", *branchID, *branchID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.StockTransfer
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
