package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/middleware"
	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/gateway"
	"github.com/hasanfarsi/dukkan-backend/internal/orders"
	"github.com/hasanfarsi/dukkan-backend/internal/settlement"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

type initiatePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// InitiatePayment re-opens the redirect flow for a pending order, for buyers
// who abandoned the first provider session.
func InitiatePayment(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		method, err := enums.ParsePaymentMethod(chi.URLParam(r, "provider"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment provider"))
			return
		}
		if !method.IsRedirect() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "provider does not use a redirect flow"))
			return
		}

		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReinitiatePayment(r.Context(), payload.OrderID, middleware.UserIDFromContext(r.Context()), method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkoutResponse{
			Order:       newOrderResponse(result.Order),
			RedirectURL: result.RedirectURL,
			SessionID:   result.SessionID,
		})
	}
}

type verifyPaymentResponse struct {
	Order   orderResponse `json:"order"`
	Outcome string        `json:"outcome"`
}

// VerifyPayment is the buyer-facing return leg: it asks the provider for the
// verdict and settles the order accordingly. Safe to call repeatedly.
func VerifyPayment(svc settlement.Service, orderSvc orders.Service, sessions *gateway.SessionStore, registry *gateway.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || orderSvc == nil || sessions == nil || registry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment verification unavailable"))
			return
		}

		orderID, err := validators.ParseQueryUUID(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		order, err := orderSvc.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := authorizeOrderRead(r, order); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if order.PaymentStatus != enums.PaymentStatusPending {
			responses.WriteSuccess(w, verifyPaymentResponse{
				Order:   newOrderResponse(order),
				Outcome: string(order.PaymentStatus),
			})
			return
		}

		session, err := sessions.ForOrder(ctx, order.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if session.ProviderRef == "" {
			responses.WriteSuccess(w, verifyPaymentResponse{
				Order:   newOrderResponse(order),
				Outcome: string(gateway.OutcomePending),
			})
			return
		}

		adapter, err := registry.Get(order.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving gateway"))
			return
		}

		verdict, err := adapter.Verify(ctx, session.ProviderRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		settled, err := svc.ConfirmPayment(ctx, settlement.ConfirmInput{
			OrderID:     order.ID,
			SessionID:   &session.ID,
			Outcome:     verdict.Outcome,
			FailureCode: verdict.FailureCode,
			ActorID:     middleware.UserIDFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, verifyPaymentResponse{
			Order:   newOrderResponse(settled),
			Outcome: string(verdict.Outcome),
		})
	}
}
