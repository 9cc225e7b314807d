package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/middleware"
	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/cashshift"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

type shiftResponse struct {
	ID                  uuid.UUID  `json:"id"`
	CashierID           uuid.UUID  `json:"cashier_id"`
	BranchID            uuid.UUID  `json:"branch_id"`
	Status              string     `json:"status"`
	OpeningCashHalalas  int64      `json:"opening_cash_halalas"`
	CashSalesHalalas    int64      `json:"cash_sales_halalas"`
	ExpectedCashHalalas *int64     `json:"expected_cash_halalas,omitempty"`
	CountedCashHalalas  *int64     `json:"counted_cash_halalas,omitempty"`
	VarianceHalalas     *int64     `json:"variance_halalas,omitempty"`
	OpenedAt            time.Time  `json:"opened_at"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
}

func newShiftResponse(shift *models.CashShift) shiftResponse {
	if shift == nil {
		return shiftResponse{}
	}
	return shiftResponse{
		ID:                  shift.ID,
		CashierID:           shift.CashierID,
		BranchID:            shift.BranchID,
		Status:              string(shift.Status),
		OpeningCashHalalas:  shift.OpeningCashHalalas,
		CashSalesHalalas:    shift.CashSalesHalalas,
		ExpectedCashHalalas: shift.ExpectedCashHalalas,
		CountedCashHalalas:  shift.CountedCashHalalas,
		VarianceHalalas:     shift.VarianceHalalas,
		OpenedAt:            shift.OpenedAt,
		ClosedAt:            shift.ClosedAt,
	}
}

type openShiftRequest struct {
	BranchID           uuid.UUID `json:"branch_id" validate:"required"`
	OpeningCashHalalas int64     `json:"opening_cash_halalas" validate:"min=0"`
}

// OpenShift opens a cash drawer for the calling cashier.
func OpenShift(svc cashshift.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shift service unavailable"))
			return
		}

		var payload openShiftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.Open(r.Context(), cashshift.OpenInput{
			CashierID:          middleware.UserIDFromContext(r.Context()),
			BranchID:           payload.BranchID,
			OpeningCashHalalas: payload.OpeningCashHalalas,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newShiftResponse(shift))
	}
}

type closeShiftRequest struct {
	CountedCashHalalas int64 `json:"counted_cash_halalas" validate:"min=0"`
}

// CloseShift settles the drawer against the counted cash.
func CloseShift(svc cashshift.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shift service unavailable"))
			return
		}

		shiftID, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload closeShiftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.Close(r.Context(), cashshift.CloseInput{
			ShiftID:            shiftID,
			CashierID:          middleware.UserIDFromContext(r.Context()),
			CountedCashHalalas: payload.CountedCashHalalas,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newShiftResponse(shift))
	}
}

// ActiveShift returns the caller's open shift, when one exists.
func ActiveShift(svc cashshift.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shift service unavailable"))
			return
		}

		shift, err := svc.Current(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newShiftResponse(shift))
	}
}
