package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/types"
)

// Line is a priced input line. UnitPriceHalalas already includes any variant
// delta resolved by the caller.
type Line struct {
	UnitPriceHalalas int64
	Quantity         int
}

// Calculator computes order money math. All amounts are halalas; intermediate
// percentage math runs through decimal and rounds half-up once at the end of
// each component, never on the running total.
type Calculator struct {
	vatRate        decimal.Decimal
	shippingFee    int64
	loyaltyDivisor int64
}

// NewCalculator validates the pricing knobs and returns a calculator.
func NewCalculator(cfg config.CheckoutConfig) (*Calculator, error) {
	if cfg.VATRatePercent < 0 || cfg.VATRatePercent > 100 {
		return nil, fmt.Errorf("vat rate percent out of range: %d", cfg.VATRatePercent)
	}
	if cfg.ShippingFee < 0 {
		return nil, fmt.Errorf("shipping fee must not be negative")
	}
	if cfg.LoyaltyDivisor <= 0 {
		return nil, fmt.Errorf("loyalty divisor must be positive")
	}
	return &Calculator{
		vatRate:        decimal.NewFromInt(int64(cfg.VATRatePercent)).Div(decimal.NewFromInt(100)),
		shippingFee:    int64(cfg.ShippingFee),
		loyaltyDivisor: int64(cfg.LoyaltyDivisor),
	}, nil
}

// Quote prices the lines with an optional coupon. Tax applies to the
// undiscounted subtotal; cashback coupons contribute no discount and instead
// yield a wallet credit after the order is paid.
func (c *Calculator) Quote(lines []Line, coupon *models.Coupon) (types.PricingBreakdown, error) {
	if len(lines) == 0 {
		return types.PricingBreakdown{}, fmt.Errorf("at least one line is required")
	}

	var subtotal int64
	for i, line := range lines {
		if line.Quantity <= 0 {
			return types.PricingBreakdown{}, fmt.Errorf("line %d: quantity must be positive", i)
		}
		if line.UnitPriceHalalas < 0 {
			return types.PricingBreakdown{}, fmt.Errorf("line %d: unit price must not be negative", i)
		}
		subtotal += line.UnitPriceHalalas * int64(line.Quantity)
	}

	subtotalDec := decimal.NewFromInt(subtotal)
	tax := subtotalDec.Mul(c.vatRate).Round(0).IntPart()

	gross := subtotal + tax + c.shippingFee
	discount, cashback := c.applyCoupon(subtotal, subtotalDec, gross, coupon)

	total := subtotal + tax + c.shippingFee - discount
	if total < 0 {
		total = 0
	}

	return types.PricingBreakdown{
		SubtotalHalalas: subtotal,
		TaxHalalas:      tax,
		ShippingHalalas: c.shippingFee,
		DiscountHalalas: discount,
		CashbackHalalas: cashback,
		TotalHalalas:    total,
		LoyaltyPoints:   total / c.loyaltyDivisor,
	}, nil
}

func (c *Calculator) applyCoupon(subtotal int64, subtotalDec decimal.Decimal, gross int64, coupon *models.Coupon) (discount, cashback int64) {
	if coupon == nil {
		return 0, 0
	}
	if subtotal < coupon.MinOrderHalalas {
		return 0, 0
	}

	switch coupon.Type {
	case enums.CouponTypePercentage:
		pct := decimal.NewFromInt(coupon.Value).Div(decimal.NewFromInt(100))
		discount = subtotalDec.Mul(pct).Round(0).IntPart()
		if discount > subtotal {
			discount = subtotal
		}
	case enums.CouponTypeFixed:
		// A fixed amount may wipe out tax and shipping too, but never go
		// past the order's gross value.
		discount = coupon.Value
		if discount > gross {
			discount = gross
		}
	case enums.CouponTypeCashback:
		pct := decimal.NewFromInt(coupon.Value).Div(decimal.NewFromInt(100))
		cashback = subtotalDec.Mul(pct).Round(0).IntPart()
		if coupon.MaxCashbackHalalas > 0 && cashback > coupon.MaxCashbackHalalas {
			cashback = coupon.MaxCashbackHalalas
		}
	}
	return discount, cashback
}
