package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/inventory"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

type stockResponse struct {
	BranchID      uuid.UUID  `json:"branch_id"`
	ProductID     uuid.UUID  `json:"product_id"`
	VariantID     *uuid.UUID `json:"variant_id,omitempty"`
	Quantity      int        `json:"quantity"`
	MinStockLevel int        `json:"min_stock_level"`
}

func newStockResponses(rows []models.StockRecord) []stockResponse {
	out := make([]stockResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, stockResponse{
			BranchID:      row.BranchID,
			ProductID:     row.ProductID,
			VariantID:     row.VariantID,
			Quantity:      row.Quantity,
			MinStockLevel: row.MinStockLevel,
		})
	}
	return out
}

// ListInventory returns the stock rows at one location. The location query
// parameter is the branch id; the central warehouse is a branch like any
// other.
func ListInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		branchID, err := validators.ParseQueryUUID(r, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.BranchStock(r.Context(), branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newStockResponses(rows))
	}
}

// LowStock lists rows at or under their minimum level.
func LowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		branchID, err := validators.ParseQueryUUID(r, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.LowStock(r.Context(), branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newStockResponses(rows))
	}
}

type setStockRequest struct {
	BranchID      uuid.UUID  `json:"branch_id" validate:"required"`
	VariantID     *uuid.UUID `json:"variant_id,omitempty"`
	Quantity      int        `json:"quantity" validate:"min=0"`
	MinStockLevel int        `json:"min_stock_level" validate:"min=0"`
}

// SetStock upserts the absolute quantity for one product at one branch.
func SetStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := pathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.SetStock(r.Context(), inventory.SetStockInput{
			Key: inventory.StockKey{
				BranchID:  payload.BranchID,
				ProductID: productID,
				VariantID: payload.VariantID,
			},
			Quantity:      payload.Quantity,
			MinStockLevel: payload.MinStockLevel,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newStockResponses([]models.StockRecord{*record})[0])
	}
}
