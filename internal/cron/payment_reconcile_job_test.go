package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/internal/gateway"
	"github.com/hasanfarsi/dukkan-backend/internal/settlement"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

type fakeSessionSource struct {
	sessions []models.PaymentSession
	err      error
}

func (f *fakeSessionSource) ExpiredSessions(ctx context.Context, now time.Time, limit int) ([]models.PaymentSession, error) {
	return f.sessions, f.err
}

type fakeResolver struct {
	confirmed []settlement.ConfirmInput
	failed    []settlement.FailInput
}

func (f *fakeResolver) ConfirmPayment(ctx context.Context, input settlement.ConfirmInput) (*models.Order, error) {
	f.confirmed = append(f.confirmed, input)
	return &models.Order{ID: input.OrderID}, nil
}

func (f *fakeResolver) FailPayment(ctx context.Context, input settlement.FailInput) (*models.Order, error) {
	f.failed = append(f.failed, input)
	return &models.Order{ID: input.OrderID}, nil
}

type verifyAdapter struct {
	method  enums.PaymentMethod
	result  *gateway.VerifyResult
	err     error
	verifed int
}

func (a *verifyAdapter) Method() enums.PaymentMethod { return a.method }

func (a *verifyAdapter) Initiate(ctx context.Context, input gateway.InitiateInput) (*gateway.InitiateResult, error) {
	return nil, errors.New("not used")
}

func (a *verifyAdapter) Verify(ctx context.Context, providerRef string) (*gateway.VerifyResult, error) {
	a.verifed++
	return a.result, a.err
}

func (a *verifyAdapter) VerifyWebhookSignature(payload []byte, signature string) error { return nil }

type fakeAdapterSource struct {
	adapter gateway.Adapter
}

func (f *fakeAdapterSource) Get(method enums.PaymentMethod) (gateway.Adapter, error) {
	return f.adapter, nil
}

func expiredSession(method enums.PaymentMethod, providerRef string) models.PaymentSession {
	return models.PaymentSession{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		UserID:      uuid.New(),
		Method:      method,
		Status:      enums.SessionStatusInitiated,
		ProviderRef: providerRef,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
}

func newReconcileJob(t *testing.T, sessions *fakeSessionSource, adapter gateway.Adapter, resolver *fakeResolver) Job {
	t.Helper()
	job, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Sessions:   sessions,
		Gateways:   &fakeAdapterSource{adapter: adapter},
		Settlement: resolver,
	})
	if err != nil {
		t.Fatalf("NewPaymentReconcileJob: %v", err)
	}
	return job
}

func TestPaymentReconcileConfirmsPaidSessions(t *testing.T) {
	session := expiredSession(enums.PaymentMethodMoyasar, "prov_123")
	adapter := &verifyAdapter{
		method: enums.PaymentMethodMoyasar,
		result: &gateway.VerifyResult{Outcome: gateway.OutcomePaid},
	}
	resolver := &fakeResolver{}
	job := newReconcileJob(t, &fakeSessionSource{sessions: []models.PaymentSession{session}}, adapter, resolver)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if adapter.verifed != 1 {
		t.Fatalf("expected one verify call, got %d", adapter.verifed)
	}
	if len(resolver.confirmed) != 1 {
		t.Fatalf("expected one confirm, got %d", len(resolver.confirmed))
	}
	if resolver.confirmed[0].OrderID != session.OrderID {
		t.Fatalf("confirmed wrong order %s", resolver.confirmed[0].OrderID)
	}
	if len(resolver.failed) != 0 {
		t.Fatalf("expected no failures, got %d", len(resolver.failed))
	}
}

func TestPaymentReconcileFailsAbandonedSessions(t *testing.T) {
	pending := expiredSession(enums.PaymentMethodTamara, "prov_abc")
	noRef := expiredSession(enums.PaymentMethodTabby, "")
	adapter := &verifyAdapter{
		method: enums.PaymentMethodTamara,
		result: &gateway.VerifyResult{Outcome: gateway.OutcomePending},
	}
	resolver := &fakeResolver{}
	job := newReconcileJob(t, &fakeSessionSource{sessions: []models.PaymentSession{pending, noRef}}, adapter, resolver)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(resolver.failed) != 2 {
		t.Fatalf("expected two failures, got %d", len(resolver.failed))
	}
	// The session without a provider handle must never hit the gateway.
	if adapter.verifed != 1 {
		t.Fatalf("expected one verify call, got %d", adapter.verifed)
	}
	for _, fail := range resolver.failed {
		if fail.Reason == "" {
			t.Fatal("expected a failure reason")
		}
	}
}

func TestPaymentReconcileCollectsVerifyErrors(t *testing.T) {
	session := expiredSession(enums.PaymentMethodMoyasar, "prov_err")
	adapter := &verifyAdapter{
		method: enums.PaymentMethodMoyasar,
		err:    errors.New("gateway down"),
	}
	resolver := &fakeResolver{}
	job := newReconcileJob(t, &fakeSessionSource{sessions: []models.PaymentSession{session}}, adapter, resolver)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(resolver.confirmed) != 0 || len(resolver.failed) != 0 {
		t.Fatal("expected no resolution on verify error")
	}
}
