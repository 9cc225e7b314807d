package coupons

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

// Service validates coupon codes and consumes usage slots.
type Service interface {
	WithTx(tx *gorm.DB) Service
	// Resolve returns the coupon when it is currently redeemable.
	Resolve(ctx context.Context, code string) (*models.Coupon, error)
	// Consume takes one usage slot; call inside the settlement transaction.
	Consume(ctx context.Context, code string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a coupon service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), now: s.now}
}

func (s *service) Resolve(ctx context.Context, code string) (*models.Coupon, error) {
	if code == "" {
		return nil, errors.New(errors.CodeValidation, "coupon code is required")
	}
	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "coupon not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading coupon")
	}
	if !coupon.Active {
		return nil, errors.New(errors.CodeConflict, "coupon is not active")
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
		return nil, errors.New(errors.CodeConflict, "coupon has expired")
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return nil, errors.New(errors.CodeConflict, "coupon usage limit reached")
	}
	return coupon, nil
}

func (s *service) Consume(ctx context.Context, code string) error {
	ok, err := s.repo.IncrementUsage(ctx, code)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "consuming coupon")
	}
	if !ok {
		return errors.New(errors.CodeConflict, "coupon usage limit reached")
	}
	return nil
}
