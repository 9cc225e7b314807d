package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/hasanfarsi/dukkan-backend/internal/gateway"
	"github.com/hasanfarsi/dukkan-backend/internal/settlement"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

const defaultReconcileBatch = 100

type expiredSessionSource interface {
	ExpiredSessions(ctx context.Context, now time.Time, limit int) ([]models.PaymentSession, error)
}

type paymentResolver interface {
	ConfirmPayment(ctx context.Context, input settlement.ConfirmInput) (*models.Order, error)
	FailPayment(ctx context.Context, input settlement.FailInput) (*models.Order, error)
}

type adapterSource interface {
	Get(method enums.PaymentMethod) (gateway.Adapter, error)
}

// PaymentReconcileJobParams configure the pending payment reconciler.
type PaymentReconcileJobParams struct {
	Logger     *logger.Logger
	Sessions   expiredSessionSource
	Gateways   adapterSource
	Settlement paymentResolver
	BatchSize  int
}

// NewPaymentReconcileJob builds the job that resolves redirect payments whose
// session expired without a webhook: each order gets one final Verify against
// its provider, then confirms or fails for good.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if params.Gateways == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &paymentReconcileJob{
		logg:       params.Logger,
		sessions:   params.Sessions,
		gateways:   params.Gateways,
		settlement: params.Settlement,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type paymentReconcileJob struct {
	logg       *logger.Logger
	sessions   expiredSessionSource
	gateways   adapterSource
	settlement paymentResolver
	batch      int
	now        func() time.Time
}

func (j *paymentReconcileJob) Name() string { return "payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	sessions, err := j.sessions.ExpiredSessions(ctx, j.now().UTC(), j.batch)
	if err != nil {
		return fmt.Errorf("list expired sessions: %w", err)
	}

	var errs []error
	confirmed, failed := 0, 0
	for _, session := range sessions {
		outcome, err := j.reconcile(ctx, session)
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", session.ID, err))
			continue
		}
		if outcome == gateway.OutcomePaid {
			confirmed++
		} else {
			failed++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired":   len(sessions),
		"confirmed": confirmed,
		"failed":    failed,
	})
	j.logg.Info(logCtx, "payment reconcile loop complete")
	return multierr.Combine(errs...)
}

func (j *paymentReconcileJob) reconcile(ctx context.Context, session models.PaymentSession) (gateway.VerifyOutcome, error) {
	sessionID := session.ID

	// No provider handle means initiate never completed; there is nothing
	// to verify.
	if session.ProviderRef == "" {
		_, err := j.settlement.FailPayment(ctx, settlement.FailInput{
			OrderID:   session.OrderID,
			SessionID: &sessionID,
			Reason:    "payment session expired",
		})
		return gateway.OutcomeFailed, err
	}

	adapter, err := j.gateways.Get(session.Method)
	if err != nil {
		return "", err
	}
	verdict, err := adapter.Verify(ctx, session.ProviderRef)
	if err != nil {
		return "", fmt.Errorf("verify %s: %w", session.ProviderRef, err)
	}

	if verdict.Outcome == gateway.OutcomePaid {
		_, err := j.settlement.ConfirmPayment(ctx, settlement.ConfirmInput{
			OrderID:   session.OrderID,
			SessionID: &sessionID,
			Outcome:   gateway.OutcomePaid,
		})
		return gateway.OutcomePaid, err
	}

	// Still pending past the TTL counts as abandoned.
	reason := verdict.FailureCode
	if reason == "" {
		reason = "payment session expired"
	}
	_, err = j.settlement.FailPayment(ctx, settlement.FailInput{
		OrderID:   session.OrderID,
		SessionID: &sessionID,
		Reason:    reason,
	})
	return gateway.OutcomeFailed, err
}
