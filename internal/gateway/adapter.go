package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// VerifyOutcome is the provider-side verdict on a payment attempt.
type VerifyOutcome string

const (
	OutcomePaid    VerifyOutcome = "paid"
	OutcomeFailed  VerifyOutcome = "failed"
	OutcomePending VerifyOutcome = "pending"
)

// InitiateInput carries everything a provider needs to open a redirect
// checkout for one order.
type InitiateInput struct {
	OrderID       uuid.UUID
	SessionID     uuid.UUID
	AmountHalalas int64
	Currency      string
	Description   string
	CallbackURL   string
	CustomerEmail string
	CustomerPhone string
}

// InitiateResult is the provider handle for a started redirect flow.
type InitiateResult struct {
	ProviderRef string
	RedirectURL string
}

// VerifyResult is the provider's current word on a payment. FailureCode is
// provider-specific and only set on failed outcomes.
type VerifyResult struct {
	Outcome     VerifyOutcome
	FailureCode string
}

// Adapter is one payment provider. Initiate is never retried: a duplicate
// call could open a second charge. Verify is read-only and safe to retry.
type Adapter interface {
	Method() enums.PaymentMethod
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	Verify(ctx context.Context, providerRef string) (*VerifyResult, error)
	VerifyWebhookSignature(payload []byte, signature string) error
}

// Registry resolves adapters by payment method.
type Registry struct {
	adapters map[enums.PaymentMethod]Adapter
}

// NewRegistry indexes the provided adapters by method.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	index := make(map[enums.PaymentMethod]Adapter, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			return nil, fmt.Errorf("nil adapter")
		}
		method := adapter.Method()
		if _, dup := index[method]; dup {
			return nil, fmt.Errorf("duplicate adapter for method %q", method)
		}
		index[method] = adapter
	}
	return &Registry{adapters: index}, nil
}

// Get returns the adapter for the method, or an error for methods no adapter
// serves (sync methods never reach the gateway).
func (r *Registry) Get(method enums.PaymentMethod) (Adapter, error) {
	adapter, ok := r.adapters[method]
	if !ok {
		return nil, fmt.Errorf("no gateway adapter for method %q", method)
	}
	return adapter, nil
}
