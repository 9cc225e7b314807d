package types

import "github.com/google/uuid"

// OrderItemSnapshot freezes a line at checkout time. Prices are halalas and
// never re-read from the catalog after the order row is written.
type OrderItemSnapshot struct {
	ProductID         uuid.UUID  `json:"productId"`
	VariantID         *uuid.UUID `json:"variantId,omitempty"`
	SKU               string     `json:"sku"`
	Name              string     `json:"name"`
	Quantity          int        `json:"quantity"`
	UnitPriceHalalas  int64      `json:"unitPriceHalalas"`
	LineTotalHalalas  int64      `json:"lineTotalHalalas"`
}

// OrderItems is the jsonb column payload for an order's lines.
type OrderItems []OrderItemSnapshot

// ShippingAddress is the delivery destination snapshot.
type ShippingAddress struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Region   string `json:"region,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// PricingBreakdown is the settled money math for an order, all halalas.
type PricingBreakdown struct {
	SubtotalHalalas int64 `json:"subtotalHalalas"`
	TaxHalalas      int64 `json:"taxHalalas"`
	ShippingHalalas int64 `json:"shippingHalalas"`
	DiscountHalalas int64 `json:"discountHalalas"`
	CashbackHalalas int64 `json:"cashbackHalalas"`
	TotalHalalas    int64 `json:"totalHalalas"`
	LoyaltyPoints   int64 `json:"loyaltyPoints"`
}
