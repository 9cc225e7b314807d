package orders

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

// allowedTransitions are the fulfilment edges a staff user may drive manually.
// Payment-driven edges (new -> processing on paid, -> cancelled on failure)
// belong to settlement and never pass through here.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusCompleted},
	enums.OrderStatusCompleted:  {enums.OrderStatusReturned},
}

// Service provides order reads and staff-driven fulfilment transitions.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListForBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.Order, error)
	Advance(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo Repository
}

// NewService wires an orders service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID, params)
}

func (s *service) ListForBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	if branchID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "branch id is required")
	}
	return s.repo.ListByBranch(ctx, branchID, params)
}

func (s *service) Advance(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if !to.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid order status")
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(order.Status, to) {
		return nil, errors.New(errors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{"from": order.Status, "to": to})
	}

	ok, err := s.repo.TransitionStatus(ctx, id, order.Status, to)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "advancing order status")
	}
	if !ok {
		return nil, errors.New(errors.CodeStateConflict, "order status changed concurrently")
	}

	order.Status = to
	return order, nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
