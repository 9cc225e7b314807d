package enums

import "fmt"

// PaymentSessionStatus is the lifecycle state of a redirect payment session.
type PaymentSessionStatus string

const (
	SessionStatusInitiated PaymentSessionStatus = "initiated"
	SessionStatusConfirmed PaymentSessionStatus = "confirmed"
	SessionStatusFailed    PaymentSessionStatus = "failed"
	SessionStatusExpired   PaymentSessionStatus = "expired"
)

var validPaymentSessionStatuses = []PaymentSessionStatus{
	SessionStatusInitiated,
	SessionStatusConfirmed,
	SessionStatusFailed,
	SessionStatusExpired,
}

// IsValid reports whether the value is a known PaymentSessionStatus.
func (s PaymentSessionStatus) IsValid() bool {
	for _, candidate := range validPaymentSessionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session can no longer change state.
func (s PaymentSessionStatus) IsTerminal() bool {
	return s == SessionStatusConfirmed || s == SessionStatusFailed || s == SessionStatusExpired
}

// ParsePaymentSessionStatus converts raw input into a PaymentSessionStatus.
func ParsePaymentSessionStatus(value string) (PaymentSessionStatus, error) {
	for _, candidate := range validPaymentSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment session status %q", value)
}
