package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/middleware"
	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/inventory"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

type transferResponse struct {
	ID           uuid.UUID  `json:"id"`
	FromBranchID uuid.UUID  `json:"from_branch_id"`
	ToBranchID   uuid.UUID  `json:"to_branch_id"`
	ProductID    uuid.UUID  `json:"product_id"`
	VariantID    *uuid.UUID `json:"variant_id,omitempty"`
	Quantity     int        `json:"quantity"`
	Status       string     `json:"status"`
	RequestedBy  uuid.UUID  `json:"requested_by"`
	ResolvedBy   *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newTransferResponse(transfer *models.StockTransfer) transferResponse {
	if transfer == nil {
		return transferResponse{}
	}
	return transferResponse{
		ID:           transfer.ID,
		FromBranchID: transfer.FromBranchID,
		ToBranchID:   transfer.ToBranchID,
		ProductID:    transfer.ProductID,
		VariantID:    transfer.VariantID,
		Quantity:     transfer.Quantity,
		Status:       string(transfer.Status),
		RequestedBy:  transfer.RequestedBy,
		ResolvedBy:   transfer.ResolvedBy,
		ResolvedAt:   transfer.ResolvedAt,
		CreatedAt:    transfer.CreatedAt,
	}
}

type requestTransferRequest struct {
	FromBranchID uuid.UUID  `json:"from_branch_id" validate:"required"`
	ToBranchID   uuid.UUID  `json:"to_branch_id" validate:"required"`
	ProductID    uuid.UUID  `json:"product_id" validate:"required"`
	VariantID    *uuid.UUID `json:"variant_id,omitempty"`
	Quantity     int        `json:"quantity" validate:"required,gt=0"`
}

// RequestTransfer opens a pending stock movement between two branches.
func RequestTransfer(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload requestTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transfer, err := svc.RequestTransfer(r.Context(), inventory.TransferInput{
			FromBranchID: payload.FromBranchID,
			ToBranchID:   payload.ToBranchID,
			ProductID:    payload.ProductID,
			VariantID:    payload.VariantID,
			Quantity:     payload.Quantity,
			RequestedBy:  middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newTransferResponse(transfer))
	}
}

type resolveTransferRequest struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled"`
}

// ResolveTransfer moves a pending transfer to its terminal status. Completed
// applies the symmetric stock movement; cancelled leaves quantities alone.
func ResolveTransfer(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		transferID, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resolveTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.UserIDFromContext(r.Context())

		var transfer *models.StockTransfer
		switch enums.TransferStatus(payload.Status) {
		case enums.TransferStatusCompleted:
			transfer, err = svc.CompleteTransfer(r.Context(), transferID, actorID)
		case enums.TransferStatusCancelled:
			transfer, err = svc.CancelTransfer(r.Context(), transferID, actorID)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "status must be completed or cancelled")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newTransferResponse(transfer))
	}
}

// ListTransfers returns transfers touching the caller's branch, or all
// transfers for actors without a branch binding.
func ListTransfers(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branchID, err := validators.ParseQueryUUIDOptional(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if branchID == nil {
			branchID = middleware.BranchIDFromContext(r.Context())
		}

		rows, err := svc.Transfers(r.Context(), branchID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.NewPage(rows, params.Limit, func(tr *models.StockTransfer) pagination.Cursor {
			return pagination.Cursor{CreatedAt: tr.CreatedAt, ID: tr.ID}
		})
		out := make([]transferResponse, 0, len(page.Items))
		for i := range page.Items {
			out = append(out, newTransferResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, transferListResponse{Items: out, NextCursor: page.NextCursor})
	}
}

type transferListResponse struct {
	Items      []transferResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}
