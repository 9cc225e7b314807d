package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/middleware"
	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/invoices"
	"github.com/hasanfarsi/dukkan-backend/internal/orders"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
	"github.com/hasanfarsi/dukkan-backend/pkg/types"
)

type orderResponse struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	BranchID        uuid.UUID              `json:"branch_id"`
	Items           types.OrderItems       `json:"items"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"payment_status"`
	PaymentMethod   string                 `json:"payment_method"`
	CouponCode      *string                `json:"coupon_code,omitempty"`
	SubtotalHalalas int64                  `json:"subtotal_halalas"`
	TaxHalalas      int64                  `json:"tax_halalas"`
	ShippingHalalas int64                  `json:"shipping_halalas"`
	DiscountHalalas int64                  `json:"discount_halalas"`
	CashbackHalalas int64                  `json:"cashback_halalas"`
	TotalHalalas    int64                  `json:"total_halalas"`
	LoyaltyPoints   int64                  `json:"loyalty_points"`
	FailureReason   *string                `json:"failure_reason,omitempty"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	return orderResponse{
		ID:              order.ID,
		UserID:          order.UserID,
		BranchID:        order.BranchID,
		Items:           order.Items,
		ShippingAddress: order.ShippingAddress,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   string(order.PaymentMethod),
		CouponCode:      order.CouponCode,
		SubtotalHalalas: order.SubtotalHalalas,
		TaxHalalas:      order.TaxHalalas,
		ShippingHalalas: order.ShippingHalalas,
		DiscountHalalas: order.DiscountHalalas,
		CashbackHalalas: order.CashbackHalalas,
		TotalHalalas:    order.TotalHalalas,
		LoyaltyPoints:   order.LoyaltyPoints,
		FailureReason:   order.FailureReason,
		PaidAt:          order.PaidAt,
		CreatedAt:       order.CreatedAt,
	}
}

type orderListResponse struct {
	Items      []orderResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderListResponse(rows []models.Order, limit int) orderListResponse {
	page := pagination.NewPage(rows, limit, func(o *models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := make([]orderResponse, 0, len(page.Items))
	for i := range page.Items {
		out = append(out, newOrderResponse(&page.Items[i]))
	}
	return orderListResponse{Items: out, NextCursor: page.NextCursor}
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in path").WithDetails(map[string]any{"param": name})
	}
	return id, nil
}

// ListOrders returns the caller's own orders; staff with a branch see the
// branch feed instead.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		role := middleware.RoleFromContext(ctx)
		branchID := middleware.BranchIDFromContext(ctx)

		var rows []models.Order
		if role != enums.RoleCustomer && branchID != nil {
			rows, err = svc.ListForBranch(ctx, *branchID, params)
		} else {
			rows, err = svc.ListForUser(ctx, middleware.UserIDFromContext(ctx), params)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(rows, params.Limit))
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := authorizeOrderRead(r, order); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func authorizeOrderRead(r *http.Request, order *models.Order) error {
	ctx := r.Context()
	if middleware.RoleFromContext(ctx) != enums.RoleCustomer {
		return nil
	}
	if order.UserID != middleware.UserIDFromContext(ctx) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

type advanceOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdvanceOrder moves a paid order along the fulfilment path.
func AdvanceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload advanceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}

		order, err := svc.Advance(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type invoiceResponse struct {
	ID           uuid.UUID        `json:"id"`
	Number       string           `json:"number"`
	OrderID      uuid.UUID        `json:"order_id"`
	Lines        types.OrderItems `json:"lines"`
	TaxHalalas   int64            `json:"tax_halalas"`
	TotalHalalas int64            `json:"total_halalas"`
	IssuedAt     time.Time        `json:"issued_at"`
}

// GetOrderInvoice returns the invoice issued when the order turned paid.
func GetOrderInvoice(orderSvc orders.Service, invoiceSvc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orderSvc == nil || invoiceSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := orderSvc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := authorizeOrderRead(r, order); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := invoiceSvc.ByOrder(r.Context(), order.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, invoiceResponse{
			ID:           invoice.ID,
			Number:       invoice.Number,
			OrderID:      invoice.OrderID,
			Lines:        invoice.Lines,
			TaxHalalas:   invoice.TaxHalalas,
			TotalHalalas: invoice.TotalHalalas,
			IssuedAt:     invoice.IssuedAt,
		})
	}
}
