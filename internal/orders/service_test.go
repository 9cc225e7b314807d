package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

type fakeOrderRepo struct {
	orders      map[uuid.UUID]*models.Order
	transition  func(from, to enums.OrderStatus) (bool, error)
	transitions []enums.OrderStatus
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (f *fakeOrderRepo) ListByBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range f.orders {
		if order.BranchID == branchID {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	return false, nil
}

func (f *fakeOrderRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	return false, nil
}

func (f *fakeOrderRepo) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeOrderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	if f.transition != nil {
		return f.transition(from, to)
	}
	order, ok := f.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	f.transitions = append(f.transitions, to)
	return true, nil
}

func (f *fakeOrderRepo) ListPendingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

func seedServiceOrder(repo *fakeOrderRepo, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		BranchID: uuid.New(),
		Status:   status,
	}
	repo.orders[order.ID] = order
	return order
}

func TestServiceAdvanceAllowedEdge(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	order := seedServiceOrder(repo, enums.OrderStatusProcessing)

	updated, err := svc.Advance(context.Background(), order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.Equal(t, enums.OrderStatusShipped, repo.orders[order.ID].Status)
}

func TestServiceAdvanceRejectsIllegalEdge(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	order := seedServiceOrder(repo, enums.OrderStatusNew)

	_, err = svc.Advance(context.Background(), order.ID, enums.OrderStatusShipped)
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeStateConflict, appErr.Code())
	assert.Equal(t, enums.OrderStatusNew, repo.orders[order.ID].Status)
}

func TestServiceAdvanceRejectsPaymentDrivenEdge(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	// new -> processing belongs to settlement, not manual fulfilment
	order := seedServiceOrder(repo, enums.OrderStatusNew)

	_, err = svc.Advance(context.Background(), order.ID, enums.OrderStatusProcessing)
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeStateConflict, appErr.Code())
}

func TestServiceAdvanceConcurrentChange(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.transition = func(from, to enums.OrderStatus) (bool, error) {
		return false, nil
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	order := seedServiceOrder(repo, enums.OrderStatusShipped)

	_, err = svc.Advance(context.Background(), order.ID, enums.OrderStatusCompleted)
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeStateConflict, appErr.Code())
}

func TestServiceAdvanceInvalidStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), uuid.New(), enums.OrderStatus("teleported"))
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeValidation, appErr.Code())
}

func TestServiceGetMapsNotFound(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeNotFound, appErr.Code())
}

func TestServiceListRequiresOwner(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.ListForUser(context.Background(), uuid.Nil, pagination.Params{})
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeValidation, appErr.Code())

	_, err = svc.ListForBranch(context.Background(), uuid.Nil, pagination.Params{})
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeValidation, appErr.Code())
}
