package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/middleware"
	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/settlement"
	"github.com/hasanfarsi/dukkan-backend/internal/users"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/types"
)

type checkoutLineRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

type checkoutRequest struct {
	BranchID        uuid.UUID              `json:"branch_id" validate:"required"`
	Lines           []checkoutLineRequest  `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
	CouponCode      string                 `json:"coupon_code,omitempty" validate:"omitempty,max=40"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
}

type checkoutResponse struct {
	Order       orderResponse `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	SessionID   *uuid.UUID    `json:"session_id,omitempty"`
}

// Checkout settles the submitted cart. Wallet and cash methods require a
// recent step-up; redirect methods return the provider URL instead of a paid
// order.
func Checkout(svc settlement.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}
		if userSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())

		if method.RequiresStepUp() {
			verified, stepErr := userSvc.HasRecentStepUp(r.Context(), userID)
			if stepErr != nil {
				responses.WriteError(r.Context(), logg, w, stepErr)
				return
			}
			if !verified {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "step-up verification required"))
				return
			}
		}

		lines := make([]settlement.CartLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, settlement.CartLine{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
			})
		}

		input := settlement.CheckoutInput{
			UserID:          userID,
			BranchID:        payload.BranchID,
			Lines:           lines,
			PaymentMethod:   method,
			CouponCode:      payload.CouponCode,
			ShippingAddress: payload.ShippingAddress,
		}
		if method == enums.PaymentMethodCash {
			input.CashierID = userID
		}

		result, err := svc.Settle(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:       newOrderResponse(result.Order),
			RedirectURL: result.RedirectURL,
			SessionID:   result.SessionID,
		})
	}
}
