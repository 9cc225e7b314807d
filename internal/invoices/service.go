package invoices

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

// Service issues invoices for settled orders. Tax is recomputed per line at
// the configured VAT rate, so the invoice total can drift from the order total
// by at most one halala per line; the drift is tolerated, not reconciled.
type Service interface {
	WithTx(tx *gorm.DB) Service
	IssueForOrder(ctx context.Context, order *models.Order) (*models.Invoice, error)
	ByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
}

type service struct {
	repo    Repository
	vatRate decimal.Decimal
	now     func() time.Time
}

// NewService wires an invoice service with the provided repository.
func NewService(repo Repository, cfg config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if cfg.VATRatePercent < 0 || cfg.VATRatePercent > 100 {
		return nil, fmt.Errorf("vat rate percent out of range: %d", cfg.VATRatePercent)
	}
	return &service{
		repo:    repo,
		vatRate: decimal.NewFromInt(int64(cfg.VATRatePercent)).Div(decimal.NewFromInt(100)),
		now:     time.Now,
	}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), vatRate: s.vatRate, now: s.now}
}

func (s *service) IssueForOrder(ctx context.Context, order *models.Order) (*models.Invoice, error) {
	if order == nil {
		return nil, errors.New(errors.CodeValidation, "order is required")
	}
	if len(order.Items) == 0 {
		return nil, errors.New(errors.CodeValidation, "order has no lines")
	}

	issuedAt := s.now()

	var tax, total int64
	for _, line := range order.Items {
		lineTax := decimal.NewFromInt(line.LineTotalHalalas).Mul(s.vatRate).Round(0).IntPart()
		tax += lineTax
		total += line.LineTotalHalalas + lineTax
	}
	total += order.ShippingHalalas - order.DiscountHalalas
	if total < 0 {
		total = 0
	}

	invoice := &models.Invoice{
		ID:           uuid.New(),
		Number:       invoiceNumber(issuedAt, order.ID),
		OrderID:      order.ID,
		UserID:       order.UserID,
		Lines:        order.Items,
		TaxHalalas:   tax,
		TotalHalalas: total,
		IssuedAt:     issuedAt,
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "writing invoice")
	}
	return invoice, nil
}

func (s *service) ByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "invoice not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading invoice")
	}
	return invoice, nil
}

// invoiceNumber is unique per order even when two orders settle in the same
// millisecond, thanks to the order id suffix.
func invoiceNumber(issuedAt time.Time, orderID uuid.UUID) string {
	return fmt.Sprintf("INV-%d-%s", issuedAt.UnixMilli(), shortID(orderID))
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}
