package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/middleware"
	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/wallet"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

type walletBalanceResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	BalanceHalalas int64     `json:"balance_halalas"`
}

type walletTransactionResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Type                string     `json:"type"`
	AmountHalalas       int64      `json:"amount_halalas"`
	BalanceAfterHalalas int64      `json:"balance_after_halalas"`
	OrderID             *uuid.UUID `json:"order_id,omitempty"`
	Reference           string     `json:"reference,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func newWalletTransactionResponses(rows []models.WalletTransaction) []walletTransactionResponse {
	out := make([]walletTransactionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, walletTransactionResponse{
			ID:                  row.ID,
			Type:                string(row.Type),
			AmountHalalas:       row.AmountHalalas,
			BalanceAfterHalalas: row.BalanceAfterHalalas,
			OrderID:             row.OrderID,
			Reference:           row.Reference,
			CreatedAt:           row.CreatedAt,
		})
	}
	return out
}

func WalletBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletBalanceResponse{UserID: userID, BalanceHalalas: balance})
	}
}

func WalletTransactions(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Transactions(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.NewPage(rows, params.Limit, func(t *models.WalletTransaction) pagination.Cursor {
			return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
		})
		responses.WriteSuccess(w, walletTransactionListResponse{
			Items:      newWalletTransactionResponses(page.Items),
			NextCursor: page.NextCursor,
		})
	}
}

type walletTransactionListResponse struct {
	Items      []walletTransactionResponse `json:"items"`
	NextCursor string                      `json:"next_cursor,omitempty"`
}

type walletDepositRequest struct {
	UserID        uuid.UUID `json:"user_id" validate:"required"`
	AmountHalalas int64     `json:"amount_halalas" validate:"required,gt=0"`
	Reference     string    `json:"reference,omitempty" validate:"omitempty,max=120"`
}

// WalletDeposit credits a user's wallet. Admin-only top-up path.
func WalletDeposit(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		var payload walletDepositRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Credit(r.Context(), wallet.MovementInput{
			UserID:        payload.UserID,
			Type:          enums.WalletTransactionDeposit,
			AmountHalalas: payload.AmountHalalas,
			Reference:     payload.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newWalletTransactionResponses([]models.WalletTransaction{*movement})[0])
	}
}

type walletRebuildRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// WalletRebuild recomputes a stored balance from the ledger. Admin repair
// path for drift investigations.
func WalletRebuild(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		var payload walletRebuildRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.RebuildBalance(r.Context(), payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletBalanceResponse{UserID: payload.UserID, BalanceHalalas: balance})
	}
}
