package enums

import "fmt"

// PaymentMethod identifies how a buyer settles an order. Wallet, cash and
// Apple Pay settle during checkout; the redirect methods settle
// asynchronously via webhook or client verify.
type PaymentMethod string

const (
	PaymentMethodWallet   PaymentMethod = "wallet"
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodApplePay PaymentMethod = "apple_pay"
	PaymentMethodMoyasar  PaymentMethod = "moyasar"
	PaymentMethodTamara   PaymentMethod = "tamara"
	PaymentMethodTabby    PaymentMethod = "tabby"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodWallet,
	PaymentMethodCash,
	PaymentMethodApplePay,
	PaymentMethodMoyasar,
	PaymentMethodTamara,
	PaymentMethodTabby,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsRedirect reports whether settlement happens through an external
// redirect gateway instead of during checkout.
func (m PaymentMethod) IsRedirect() bool {
	switch m {
	case PaymentMethodMoyasar, PaymentMethodTamara, PaymentMethodTabby:
		return true
	default:
		return false
	}
}

// RequiresStepUp reports whether the method needs the password re-check
// before checkout can finalize. Redirect gateways carry their own strong
// auth, so they are exempt.
func (m PaymentMethod) RequiresStepUp() bool {
	return m == PaymentMethodWallet || m == PaymentMethodCash
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
