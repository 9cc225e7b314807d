package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
	"github.com/hasanfarsi/dukkan-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  branch_id TEXT NOT NULL,
  items TEXT NOT NULL,
  shipping_address TEXT,
  status TEXT NOT NULL DEFAULT 'new',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  coupon_code TEXT,
  subtotal_halalas INTEGER NOT NULL,
  tax_halalas INTEGER NOT NULL,
  shipping_halalas INTEGER NOT NULL,
  discount_halalas INTEGER NOT NULL DEFAULT 0,
  cashback_halalas INTEGER NOT NULL DEFAULT 0,
  total_halalas INTEGER NOT NULL,
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  failure_reason TEXT,
  shift_id TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		BranchID:      uuid.New(),
		Items: types.OrderItems{{
			ProductID:         uuid.New(),
			Name:              "Dates 1kg",
			Quantity:          2,
			UnitPriceHalalas:  1500,
			LineTotalHalalas:  3000,
		}},
		Status:          enums.OrderStatusNew,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   enums.PaymentMethodWallet,
		SubtotalHalalas: 3000,
		TaxHalalas:      450,
		ShippingHalalas: 0,
		TotalHalalas:    3450,
		CreatedAt:       time.Now().Add(-time.Minute),
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryMarkPaidOnlyOnce(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)
	paidAt := time.Now()

	ok, err := repo.MarkPaid(ctx, order.ID, paidAt)
	require.NoError(t, err)
	assert.True(t, ok)

	// second confirm is a no-op
	ok, err = repo.MarkPaid(ctx, order.ID, paidAt)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, stored.Status)
	require.NotNil(t, stored.PaidAt)
}

func TestRepositoryMarkFailedRecordsReason(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	ok, err := repo.MarkFailed(ctx, order.ID, "card_declined")
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCancelled, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, "card_declined", *stored.FailureReason)

	// a failed order cannot be paid afterwards
	ok, err = repo.MarkPaid(ctx, order.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryMarkRefundedRequiresPaid(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	ok, err := repo.MarkRefunded(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.MarkPaid(ctx, order.ID, time.Now())
	require.NoError(t, err)

	ok, err = repo.MarkRefunded(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, stored.PaymentStatus)
	assert.Equal(t, enums.OrderStatusReturned, stored.Status)
}

func TestRepositoryTransitionStatusIsConditional(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusProcessing
	})

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale "from" loses the race
	ok, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusProcessing, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Minute
		seedOrder(t, db, func(o *models.Order) {
			o.UserID = userID
			o.CreatedAt = base.Add(offset)
		})
	}
	// unrelated user
	seedOrder(t, db, nil)

	rows, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 3) // limit buffer fetches one extra row
	for _, row := range rows {
		assert.Equal(t, userID, row.UserID)
	}
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))
}

func TestRepositoryListPendingPaymentBefore(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	stale := seedOrder(t, db, func(o *models.Order) {
		o.CreatedAt = time.Now().Add(-2 * time.Hour)
	})
	seedOrder(t, db, func(o *models.Order) {
		o.CreatedAt = time.Now()
	})
	paid := seedOrder(t, db, func(o *models.Order) {
		o.CreatedAt = time.Now().Add(-2 * time.Hour)
	})
	_, err := repo.MarkPaid(ctx, paid.ID, time.Now())
	require.NoError(t, err)

	rows, err := repo.ListPendingPaymentBefore(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)
}
