package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/internal/gateway"
	"github.com/hasanfarsi/dukkan-backend/internal/settlement"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

const webhookSignatureHeader = "X-Signature"

// PaymentWebhook receives provider callbacks. The payload is only trusted for
// the payment reference; the verdict always comes from a fresh Verify call
// back to the provider.
func PaymentWebhook(svc settlement.Service, sessions *gateway.SessionStore, registry *gateway.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || sessions == nil || registry == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable"))
			return
		}

		method, err := enums.ParsePaymentMethod(chi.URLParam(r, "provider"))
		if err != nil || !method.IsRedirect() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown webhook provider"))
			return
		}

		adapter, err := registry.Get(method)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving gateway"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get(webhookSignatureHeader))
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing"))
			return
		}
		if err := adapter.VerifyWebhookSignature(payload, signature); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature"))
			return
		}

		providerRef := extractProviderRef(payload)
		if providerRef == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing payment reference"))
			return
		}

		session, err := sessions.Resolve(ctx, providerRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		verdict, err := adapter.Verify(ctx, providerRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if _, err := svc.ConfirmPayment(ctx, settlement.ConfirmInput{
			OrderID:     session.OrderID,
			SessionID:   &session.ID,
			Outcome:     verdict.Outcome,
			FailureCode: verdict.FailureCode,
			ActorID:     session.UserID,
		}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}

// extractProviderRef pulls the payment reference out of a provider payload.
// Field names differ per provider; all of them put the reference near the
// top level.
func extractProviderRef(payload []byte) string {
	var body struct {
		ID        string `json:"id"`
		PaymentID string `json:"payment_id"`
		OrderID   string `json:"order_id"`
		Data      struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	for _, candidate := range []string{body.PaymentID, body.ID, body.OrderID, body.Data.ID} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
