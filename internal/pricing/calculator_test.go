package pricing

import (
	"testing"

	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

func testConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		VATRatePercent:  15,
		ShippingFee:     2000,
		LoyaltyDivisor:  1000,
		MinStockDefault: 5,
	}
}

func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(testConfig())
	if err != nil {
		t.Fatalf("NewCalculator error: %v", err)
	}
	return calc
}

func TestQuote_NoCoupon(t *testing.T) {
	calc := newCalculator(t)

	// 2 x 50.00 SAR + 1 x 20.00 SAR = 120.00 subtotal
	got, err := calc.Quote([]Line{
		{UnitPriceHalalas: 5000, Quantity: 2},
		{UnitPriceHalalas: 2000, Quantity: 1},
	}, nil)
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	if got.SubtotalHalalas != 12000 {
		t.Fatalf("subtotal = %d, want 12000", got.SubtotalHalalas)
	}
	if got.TaxHalalas != 1800 {
		t.Fatalf("tax = %d, want 1800", got.TaxHalalas)
	}
	if got.ShippingHalalas != 2000 {
		t.Fatalf("shipping = %d, want 2000", got.ShippingHalalas)
	}
	if got.TotalHalalas != 15800 {
		t.Fatalf("total = %d, want 15800", got.TotalHalalas)
	}
	if got.LoyaltyPoints != 15 {
		t.Fatalf("loyalty = %d, want 15", got.LoyaltyPoints)
	}
}

func TestQuote_PercentageCoupon(t *testing.T) {
	calc := newCalculator(t)
	coupon := &models.Coupon{
		Code:  "SAVE10",
		Type:  enums.CouponTypePercentage,
		Value: 10,
	}

	got, err := calc.Quote([]Line{{UnitPriceHalalas: 10000, Quantity: 1}}, coupon)
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	// Tax applies to the undiscounted subtotal.
	if got.DiscountHalalas != 1000 {
		t.Fatalf("discount = %d, want 1000", got.DiscountHalalas)
	}
	if got.TaxHalalas != 1500 {
		t.Fatalf("tax = %d, want 1500", got.TaxHalalas)
	}
	if got.TotalHalalas != 10000+1500+2000-1000 {
		t.Fatalf("total = %d, want %d", got.TotalHalalas, 10000+1500+2000-1000)
	}
}

func TestQuote_FixedCouponCoversTaxAndShipping(t *testing.T) {
	calc := newCalculator(t)
	coupon := &models.Coupon{
		Code:  "TWELVEOFF",
		Type:  enums.CouponTypeFixed,
		Value: 12000,
	}

	// subtotal 10000, tax 1500, shipping 2000: a 12000 fixed coupon eats
	// past the subtotal into tax and shipping.
	got, err := calc.Quote([]Line{{UnitPriceHalalas: 10000, Quantity: 1}}, coupon)
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	if got.DiscountHalalas != 12000 {
		t.Fatalf("discount = %d, want 12000", got.DiscountHalalas)
	}
	if got.TotalHalalas != 1500 {
		t.Fatalf("total = %d, want 1500", got.TotalHalalas)
	}
}

func TestQuote_FixedCouponCappedAtGross(t *testing.T) {
	calc := newCalculator(t)
	coupon := &models.Coupon{
		Code:  "BIGOFF",
		Type:  enums.CouponTypeFixed,
		Value: 50000,
	}

	got, err := calc.Quote([]Line{{UnitPriceHalalas: 3000, Quantity: 1}}, coupon)
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	// gross = 3000 + 450 + 2000
	if got.DiscountHalalas != 5450 {
		t.Fatalf("discount = %d, want 5450 (capped at subtotal+tax+shipping)", got.DiscountHalalas)
	}
	if got.TotalHalalas != 0 {
		t.Fatalf("total = %d, want 0", got.TotalHalalas)
	}
}

func TestQuote_CashbackCouponNoDiscount(t *testing.T) {
	calc := newCalculator(t)
	coupon := &models.Coupon{
		Code:               "CASH5",
		Type:               enums.CouponTypeCashback,
		Value:              5,
		MaxCashbackHalalas: 400,
	}

	got, err := calc.Quote([]Line{{UnitPriceHalalas: 10000, Quantity: 1}}, coupon)
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	if got.DiscountHalalas != 0 {
		t.Fatalf("discount = %d, want 0 for cashback coupon", got.DiscountHalalas)
	}
	// 5% of 100.00 SAR is 5.00 SAR, capped at 4.00.
	if got.CashbackHalalas != 400 {
		t.Fatalf("cashback = %d, want 400", got.CashbackHalalas)
	}
	if got.TotalHalalas != 10000+1500+2000 {
		t.Fatalf("total = %d, want %d", got.TotalHalalas, 10000+1500+2000)
	}
}

func TestQuote_MinOrderGate(t *testing.T) {
	calc := newCalculator(t)
	coupon := &models.Coupon{
		Code:            "SAVE10",
		Type:            enums.CouponTypePercentage,
		Value:           10,
		MinOrderHalalas: 20000,
	}

	got, err := calc.Quote([]Line{{UnitPriceHalalas: 10000, Quantity: 1}}, coupon)
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}

	if got.DiscountHalalas != 0 {
		t.Fatalf("discount = %d, want 0 below min order", got.DiscountHalalas)
	}
	if got.CashbackHalalas != 0 {
		t.Fatalf("cashback = %d, want 0 below min order", got.CashbackHalalas)
	}
}

func TestQuote_RejectsBadLines(t *testing.T) {
	calc := newCalculator(t)

	if _, err := calc.Quote(nil, nil); err == nil {
		t.Fatal("expected error for empty lines")
	}
	if _, err := calc.Quote([]Line{{UnitPriceHalalas: 100, Quantity: 0}}, nil); err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if _, err := calc.Quote([]Line{{UnitPriceHalalas: -1, Quantity: 1}}, nil); err == nil {
		t.Fatal("expected error for negative unit price")
	}
}

func TestQuote_RoundsHalfUp(t *testing.T) {
	calc := newCalculator(t)

	// 15% of 33 halalas is 4.95, which rounds to 5.
	got, err := calc.Quote([]Line{{UnitPriceHalalas: 33, Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("Quote error: %v", err)
	}
	if got.TaxHalalas != 5 {
		t.Fatalf("tax = %d, want 5", got.TaxHalalas)
	}
}
