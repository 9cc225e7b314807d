package coupons

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
)

// Repository manages persistence for coupons.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	// IncrementUsage bumps usage_count only while it stays under the limit.
	// Returns false when the coupon was exhausted by a concurrent order.
	IncrementUsage(ctx context.Context, code string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a coupon repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("lower(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("lower(code) = ? AND (usage_limit = 0 OR usage_count < usage_limit)", strings.ToLower(strings.TrimSpace(code))).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
