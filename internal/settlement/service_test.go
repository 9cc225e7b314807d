package settlement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/internal/audit"
	"github.com/hasanfarsi/dukkan-backend/internal/coupons"
	"github.com/hasanfarsi/dukkan-backend/internal/gateway"
	"github.com/hasanfarsi/dukkan-backend/internal/inventory"
	"github.com/hasanfarsi/dukkan-backend/internal/invoices"
	"github.com/hasanfarsi/dukkan-backend/internal/orders"
	"github.com/hasanfarsi/dukkan-backend/internal/pricing"
	"github.com/hasanfarsi/dukkan-backend/internal/products"
	"github.com/hasanfarsi/dukkan-backend/internal/users"
	"github.com/hasanfarsi/dukkan-backend/internal/wallet"
	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type capturedEvents struct {
	events []outbox.DomainEvent
}

func (c *capturedEvents) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) ofType(eventType enums.OutboxEventType) int {
	count := 0
	for _, event := range c.events {
		if event.EventType == eventType {
			count++
		}
	}
	return count
}

type recordedAudit struct {
	entries []audit.Entry
}

func (r *recordedAudit) Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fakeShifts struct {
	shift    *models.CashShift
	recorded []int64
}

func (f *fakeShifts) Current(ctx context.Context, cashierID uuid.UUID) (*models.CashShift, error) {
	if f.shift == nil {
		return nil, errors.New(errors.CodeNotFound, "no open shift")
	}
	return f.shift, nil
}

func (f *fakeShifts) RecordCashSale(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID, amountHalalas int64) error {
	f.recorded = append(f.recorded, amountHalalas)
	return nil
}

type noopCache struct{}

func (noopCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (noopCache) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (noopCache) Del(ctx context.Context, keys ...string) error       { return nil }
func (noopCache) PaymentSessionKey(sessionID string) string           { return "test:" + sessionID }

type fakeAdapter struct {
	method        enums.PaymentMethod
	initiateErr   error
	initiateCalls int
}

func (f *fakeAdapter) Method() enums.PaymentMethod { return f.method }

func (f *fakeAdapter) Initiate(ctx context.Context, input gateway.InitiateInput) (*gateway.InitiateResult, error) {
	f.initiateCalls++
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	return &gateway.InitiateResult{
		ProviderRef: "prov_" + input.SessionID.String()[:8],
		RedirectURL: "https://pay.example.com/" + input.SessionID.String(),
	}, nil
}

func (f *fakeAdapter) Verify(ctx context.Context, providerRef string) (*gateway.VerifyResult, error) {
	return &gateway.VerifyResult{Outcome: gateway.OutcomePaid}, nil
}

func (f *fakeAdapter) VerifyWebhookSignature(payload []byte, signature string) error { return nil }

var settlementSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'customer',
  branch_id TEXT,
  wallet_balance_halalas INTEGER NOT NULL DEFAULT 0,
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  lifetime_spend_halalas INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_halalas INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_delta_halalas INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  value INTEGER NOT NULL,
  min_order_halalas INTEGER NOT NULL DEFAULT 0,
  max_cashback_halalas INTEGER NOT NULL DEFAULT 0,
  usage_limit INTEGER NOT NULL DEFAULT 0,
  usage_count INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS orders (
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
);`,
	`CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  lines TEXT NOT NULL,
  tax_halalas INTEGER NOT NULL,
  total_halalas INTEGER NOT NULL,
  issued_at DATETIME NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_halalas INTEGER NOT NULL,
  balance_after_halalas INTEGER NOT NULL,
  order_id TEXT,
  reference TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS stock_records (
  id TEXT PRIMARY KEY,
  branch_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  quantity INTEGER NOT NULL DEFAULT 0,
  min_stock_level INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_branch_product ON stock_records (branch_id, product_id, variant_id);`,
	`CREATE TABLE IF NOT EXISTS payment_sessions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'initiated',
  provider_ref TEXT NOT NULL DEFAULT '',
  redirect_url TEXT NOT NULL DEFAULT '',
  amount_halalas INTEGER NOT NULL,
  failure_code TEXT,
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
}

type harness struct {
	db      *gorm.DB
	svc     Service
	events  *capturedEvents
	audits  *recordedAudit
	shifts  *fakeShifts
	adapter *fakeAdapter
	wallet  wallet.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range settlementSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	cfg := config.CheckoutConfig{
		VATRatePercent:  15,
		ShippingFee:     2000,
		LoyaltyDivisor:  1000,
		MinStockDefault: 5,
	}

	events := &capturedEvents{}
	audits := &recordedAudit{}
	shifts := &fakeShifts{}
	adapter := &fakeAdapter{method: enums.PaymentMethodMoyasar}

	walletSvc, err := wallet.NewService(wallet.NewRepository(db))
	require.NoError(t, err)
	couponSvc, err := coupons.NewService(coupons.NewRepository(db))
	require.NoError(t, err)
	inventorySvc, err := inventory.NewService(gormTxRunner{db: db}, inventory.NewRepository(db), events, cfg.MinStockDefault)
	require.NoError(t, err)
	invoiceSvc, err := invoices.NewService(invoices.NewRepository(db), cfg)
	require.NoError(t, err)
	sessions, err := gateway.NewSessionStore(gateway.NewSessionRepository(db), noopCache{}, 30*time.Minute)
	require.NoError(t, err)
	registry, err := gateway.NewRegistry(adapter)
	require.NoError(t, err)
	pricer, err := pricing.NewCalculator(cfg)
	require.NoError(t, err)

	svc, err := NewService(Deps{
		Tx:        gormTxRunner{db: db},
		Orders:    orders.NewRepository(db),
		Products:  products.NewRepository(db),
		Users:     users.NewRepository(db),
		Coupons:   couponSvc,
		Wallet:    walletSvc,
		Inventory: inventorySvc,
		Shifts:    shifts,
		Invoices:  invoiceSvc,
		Sessions:  sessions,
		Gateways:  registry,
		Audit:     audits,
		Outbox:    events,
		Pricer:    pricer,
	})
	require.NoError(t, err)

	return &harness{db: db, svc: svc, events: events, audits: audits, shifts: shifts, adapter: adapter, wallet: walletSvc}
}

func (h *harness) seedUser(t *testing.T, walletBalance int64) uuid.UUID {
	t.Helper()
	user := models.User{
		ID:                   uuid.New(),
		Name:                 "Test Buyer",
		Email:                fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:                 enums.RoleCustomer,
		WalletBalanceHalalas: walletBalance,
		Active:               true,
	}
	require.NoError(t, h.db.Create(&user).Error)
	return user.ID
}

func (h *harness) seedProduct(t *testing.T, price int64) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:           uuid.New(),
		SKU:          "SKU-" + uuid.NewString()[:8],
		Name:         "Test Product",
		PriceHalalas: price,
		Active:       true,
	}
	require.NoError(t, h.db.Create(&product).Error)
	return product.ID
}

func (h *harness) seedStock(t *testing.T, branchID, productID uuid.UUID, quantity int) {
	t.Helper()
	record := models.StockRecord{
		ID:        uuid.New(),
		BranchID:  branchID,
		ProductID: productID,
		Quantity:  quantity,
	}
	require.NoError(t, h.db.Create(&record).Error)
}

func (h *harness) stockQuantity(t *testing.T, branchID, productID uuid.UUID) int {
	t.Helper()
	var record models.StockRecord
	require.NoError(t, h.db.First(&record, "branch_id = ? AND product_id = ?", branchID, productID).Error)
	return record.Quantity
}

func (h *harness) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

// Price 5000 x 2: subtotal 10000, tax 1500, shipping 2000, total 13500.
func cartInput(userID, branchID, productID uuid.UUID, method enums.PaymentMethod) CheckoutInput {
	return CheckoutInput{
		UserID:        userID,
		BranchID:      branchID,
		Lines:         []CartLine{{ProductID: productID, Quantity: 2}},
		PaymentMethod: method,
	}
}

func TestSettleWalletOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 20000)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	result, err := h.svc.Settle(ctx, cartInput(user, branch, product, enums.PaymentMethodWallet))
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.Equal(t, int64(13500), order.TotalHalalas)
	assert.Empty(t, result.RedirectURL)

	// Stock was taken at settlement and the wallet covered the total.
	assert.Equal(t, 8, h.stockQuantity(t, branch, product))
	balance, err := h.wallet.Balance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(6500), balance)

	var invoice models.Invoice
	require.NoError(t, h.db.First(&invoice, "order_id = ?", order.ID).Error)

	var buyer models.User
	require.NoError(t, h.db.First(&buyer, "id = ?", user).Error)
	assert.Equal(t, int64(13), buyer.LoyaltyPoints)
	assert.Equal(t, int64(13500), buyer.LifetimeSpendHalalas)

	assert.Equal(t, 1, h.events.ofType(enums.EventOrderCreated))
	assert.Equal(t, 1, h.events.ofType(enums.EventOrderPaid))
	require.Len(t, h.audits.entries, 1)
	assert.Equal(t, "order.paid", h.audits.entries[0].Action)
}

func TestSettleWalletInsufficientBalanceCreatesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 5000)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	_, err := h.svc.Settle(ctx, cartInput(user, branch, product, enums.PaymentMethodWallet))
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeInsufficientBalance, appErr.Code())

	assert.Equal(t, int64(0), h.orderCount(t))
	assert.Equal(t, 10, h.stockQuantity(t, branch, product))
	balance, err := h.wallet.Balance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
}

func TestSettleCashRequiresOpenShift(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 0)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	input := cartInput(user, branch, product, enums.PaymentMethodCash)
	input.CashierID = uuid.New()

	_, err := h.svc.Settle(ctx, input)
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeStateConflict, appErr.Code())
	assert.Equal(t, int64(0), h.orderCount(t))

	// With an open shift the same checkout settles and the sale lands on it.
	h.shifts.shift = &models.CashShift{ID: uuid.New(), Status: enums.ShiftStatusOpen}
	result, err := h.svc.Settle(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, result.Order.PaymentStatus)
	require.NotNil(t, result.Order.ShiftID)
	assert.Equal(t, h.shifts.shift.ID, *result.Order.ShiftID)
	require.Len(t, h.shifts.recorded, 1)
	assert.Equal(t, int64(13500), h.shifts.recorded[0])
}

func TestSettleRedirectDefersStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 0)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	result, err := h.svc.Settle(ctx, cartInput(user, branch, product, enums.PaymentMethodMoyasar))
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPending, result.Order.PaymentStatus)
	assert.NotEmpty(t, result.RedirectURL)
	require.NotNil(t, result.SessionID)
	assert.Equal(t, 1, h.adapter.initiateCalls)

	// Stock is not taken until the payment confirms.
	assert.Equal(t, 10, h.stockQuantity(t, branch, product))

	var session models.PaymentSession
	require.NoError(t, h.db.First(&session, "id = ?", *result.SessionID).Error)
	assert.Equal(t, result.Order.ID, session.OrderID)
	assert.NotEmpty(t, session.ProviderRef)
}

func TestSettleRedirectInitiateFailureMarksOrderFailed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 0)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)
	h.adapter.initiateErr = errors.New(errors.CodeGateway, "provider unavailable")

	_, err := h.svc.Settle(ctx, cartInput(user, branch, product, enums.PaymentMethodMoyasar))
	require.Error(t, err)

	// The order row survives as a failed record; it is never deleted.
	var order models.Order
	require.NoError(t, h.db.First(&order, "user_id = ?", user).Error)
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	require.NotNil(t, order.FailureReason)
	assert.Equal(t, 10, h.stockQuantity(t, branch, product))
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 0)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	result, err := h.svc.Settle(ctx, cartInput(user, branch, product, enums.PaymentMethodMoyasar))
	require.NoError(t, err)

	confirm := ConfirmInput{
		OrderID:   result.Order.ID,
		SessionID: result.SessionID,
		Outcome:   gateway.OutcomePaid,
	}
	order, err := h.svc.ConfirmPayment(ctx, confirm)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, 8, h.stockQuantity(t, branch, product))

	var session models.PaymentSession
	require.NoError(t, h.db.First(&session, "id = ?", *result.SessionID).Error)
	assert.Equal(t, enums.SessionStatusConfirmed, session.Status)

	// A replayed webhook confirms again without moving anything twice.
	again, err := h.svc.ConfirmPayment(ctx, confirm)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, again.PaymentStatus)
	assert.Equal(t, 8, h.stockQuantity(t, branch, product))

	var buyer models.User
	require.NoError(t, h.db.First(&buyer, "id = ?", user).Error)
	assert.Equal(t, int64(13), buyer.LoyaltyPoints)

	var invoiceCount int64
	require.NoError(t, h.db.Model(&models.Invoice{}).Where("order_id = ?", order.ID).Count(&invoiceCount).Error)
	assert.Equal(t, int64(1), invoiceCount)
	assert.Equal(t, 1, h.events.ofType(enums.EventOrderPaid))
}

func TestConfirmPaymentInsufficientStockRefundsWallet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 0)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	result, err := h.svc.Settle(ctx, cartInput(user, branch, product, enums.PaymentMethodMoyasar))
	require.NoError(t, err)

	// The branch sells out while the buyer is on the provider page.
	require.NoError(t, h.db.Model(&models.StockRecord{}).
		Where("branch_id = ? AND product_id = ?", branch, product).
		Update("quantity", 1).Error)

	_, err = h.svc.ConfirmPayment(ctx, ConfirmInput{
		OrderID:   result.Order.ID,
		SessionID: result.SessionID,
		Outcome:   gateway.OutcomePaid,
	})
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeStateConflict, appErr.Code())

	var order models.Order
	require.NoError(t, h.db.First(&order, "id = ?", result.Order.ID).Error)
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)

	// The captured amount lands in the wallet as a refund.
	balance, err := h.wallet.Balance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(13500), balance)
	assert.Equal(t, 1, h.stockQuantity(t, branch, product))
}

func TestSettleCashbackCreditedOnPaid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 20000)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	coupon := models.Coupon{
		ID:                 uuid.New(),
		Code:               "back5",
		Type:               enums.CouponTypeCashback,
		Value:              5,
		MaxCashbackHalalas: 2000,
		Active:             true,
	}
	require.NoError(t, h.db.Create(&coupon).Error)

	input := cartInput(user, branch, product, enums.PaymentMethodWallet)
	input.CouponCode = "back5"

	result, err := h.svc.Settle(ctx, input)
	require.NoError(t, err)

	// Cashback discounts nothing: total stays 13500, 5% of subtotal comes
	// back to the wallet after payment.
	order := result.Order
	assert.Equal(t, int64(0), order.DiscountHalalas)
	assert.Equal(t, int64(500), order.CashbackHalalas)
	assert.Equal(t, int64(13500), order.TotalHalalas)

	// balanceAfter = before - total + cashback.
	balance, err := h.wallet.Balance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(20000-13500+500), balance)

	var stored models.Coupon
	require.NoError(t, h.db.First(&stored, "code = ?", "back5").Error)
	assert.Equal(t, 1, stored.UsageCount)
}

func TestFailPaymentIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	branch := uuid.New()
	user := h.seedUser(t, 0)
	product := h.seedProduct(t, 5000)
	h.seedStock(t, branch, product, 10)

	result, err := h.svc.Settle(ctx, cartInput(user, branch, product, enums.PaymentMethodMoyasar))
	require.NoError(t, err)

	fail := FailInput{OrderID: result.Order.ID, SessionID: result.SessionID, Reason: "declined"}
	order, err := h.svc.FailPayment(ctx, fail)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)

	again, err := h.svc.FailPayment(ctx, fail)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, again.PaymentStatus)
	assert.Equal(t, 1, h.events.ofType(enums.EventOrderFailed))
}
