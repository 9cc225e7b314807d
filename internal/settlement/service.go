package settlement

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/outbox"
	"github.com/hasanfarsi/dukkan-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// shiftLedger is the slice of the cash shift service settlement needs for
// cash orders.
type shiftLedger interface {
	Current(ctx context.Context, cashierID uuid.UUID) (*models.CashShift, error)
	RecordCashSale(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID, amountHalalas int64) error
}

// auditor is the write side of the audit trail.
type auditor interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// Service coordinates checkout settlement end to end: pricing, order
// creation, payment, stock, cashback, loyalty, invoice and events.
type Service interface {
	// Settle runs the checkout. Sync methods (wallet, cash, apple pay)
	// return a paid order; redirect methods return a pending order plus the
	// provider redirect URL.
	Settle(ctx context.Context, input CheckoutInput) (*Result, error)
	// ConfirmPayment moves a pending order to its payment verdict. The paid
	// transition is a conditional update, so a duplicate confirm is a no-op.
	ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error)
	// FailPayment marks a pending order failed. The row is kept for audit;
	// failed orders are never deleted.
	FailPayment(ctx context.Context, input FailInput) (*models.Order, error)
	// ReinitiatePayment opens a fresh provider session for a pending
	// redirect order whose previous session was abandoned. The method must
	// match the one the order was placed with.
	ReinitiatePayment(ctx context.Context, orderID, actorID uuid.UUID, method enums.PaymentMethod) (*Result, error)
}

// CartLine is one requested product/quantity pair.
type CartLine struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// CheckoutInput is everything Settle needs for one order.
type CheckoutInput struct {
	UserID          uuid.UUID
	BranchID        uuid.UUID
	Lines           []CartLine
	PaymentMethod   enums.PaymentMethod
	CouponCode      string
	ShippingAddress *types.ShippingAddress
	// CashierID identifies the operator for cash orders; the sale lands on
	// their open shift.
	CashierID uuid.UUID
}

// Result is the settle outcome. RedirectURL and SessionID are set only for
// redirect payment methods.
type Result struct {
	Order       *models.Order
	RedirectURL string
	SessionID   *uuid.UUID
}

// ConfirmInput carries a provider verdict back to the order.
type ConfirmInput struct {
	OrderID     uuid.UUID
	SessionID   *uuid.UUID
	Outcome     gateway.VerifyOutcome
	FailureCode string
	// ActorID is the user the confirmation is attributed to in the audit
	// trail; for webhooks this is the order's buyer.
	ActorID uuid.UUID
}

// FailInput marks one pending order failed.
type FailInput struct {
	OrderID   uuid.UUID
	SessionID *uuid.UUID
	Reason    string
	ActorID   uuid.UUID
}

// Deps bundles the collaborating services. All fields are required except
// Logger.
type Deps struct {
	Tx        txRunner
	Orders    orders.Repository
	Products  products.Repository
	Users     users.Repository
	Coupons   coupons.Service
	Wallet    wallet.Service
	Inventory inventory.Service
	Shifts    shiftLedger
	Invoices  invoices.Service
	Sessions  *gateway.SessionStore
	Gateways  *gateway.Registry
	Audit     auditor
	Outbox    outboxPublisher
	Pricer    *pricing.Calculator
	Logger    *logger.Logger
}

type service struct {
	deps Deps
	now  func() time.Time
}

// NewService validates the dependency set and returns the settlement service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case deps.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case deps.Coupons == nil:
		return nil, fmt.Errorf("coupons service required")
	case deps.Wallet == nil:
		return nil, fmt.Errorf("wallet service required")
	case deps.Inventory == nil:
		return nil, fmt.Errorf("inventory service required")
	case deps.Shifts == nil:
		return nil, fmt.Errorf("shift ledger required")
	case deps.Invoices == nil:
		return nil, fmt.Errorf("invoices service required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session store required")
	case deps.Gateways == nil:
		return nil, fmt.Errorf("gateway registry required")
	case deps.Audit == nil:
		return nil, fmt.Errorf("audit service required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Pricer == nil:
		return nil, fmt.Errorf("pricing calculator required")
	}
	return &service{deps: deps, now: time.Now}, nil
}

func (s *service) Settle(ctx context.Context, input CheckoutInput) (*Result, error) {
	if err := validateCheckout(input); err != nil {
		return nil, err
	}

	items, err := s.snapshotCart(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if input.CouponCode != "" {
		coupon, err = s.deps.Coupons.Resolve(ctx, input.CouponCode)
		if err != nil {
			return nil, err
		}
	}

	priceLines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		priceLines = append(priceLines, pricing.Line{
			UnitPriceHalalas: item.UnitPriceHalalas,
			Quantity:         item.Quantity,
		})
	}
	breakdown, err := s.deps.Pricer.Quote(priceLines, coupon)
	if err != nil {
		return nil, err
	}

	// Fail fast before anything is written: a wallet that cannot cover the
	// total must leave no order behind.
	if input.PaymentMethod == enums.PaymentMethodWallet {
		balance, err := s.deps.Wallet.Balance(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		if balance < breakdown.TotalHalalas {
			return nil, errors.New(errors.CodeInsufficientBalance, "wallet balance does not cover the order total").
				WithDetails(map[string]int64{
					"balanceHalalas": balance,
					"totalHalalas":   breakdown.TotalHalalas,
				})
		}
	}

	var shift *models.CashShift
	if input.PaymentMethod == enums.PaymentMethodCash {
		if input.CashierID == uuid.Nil {
			return nil, errors.New(errors.CodeValidation, "cash orders require a cashier")
		}
		shift, err = s.deps.Shifts.Current(ctx, input.CashierID)
		if err != nil {
			return nil, errors.New(errors.CodeStateConflict, "cash orders require an open shift")
		}
	}

	order := buildOrder(input, items, breakdown, coupon, shift)

	var session *models.PaymentSession
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.deps.Orders.WithTx(tx).Create(ctx, order); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating order")
		}
		if err := s.emitOrderEvent(ctx, tx, order, enums.EventOrderCreated, nil); err != nil {
			return err
		}

		if order.PaymentMethod.IsRedirect() {
			// Stock is not taken for pending redirect orders; the paid
			// transition decrements it.
			created, err := s.deps.Sessions.Open(ctx, tx, order)
			if err != nil {
				return err
			}
			session = created
			return nil
		}
		return s.settleSync(ctx, tx, order, shift)
	})
	if err != nil {
		return nil, err
	}

	if session == nil {
		return &Result{Order: order}, nil
	}
	return s.initiateRedirect(ctx, order, session)
}

// settleSync takes payment and finalizes the order inside the settle
// transaction.
func (s *service) settleSync(ctx context.Context, tx *gorm.DB, order *models.Order, shift *models.CashShift) error {
	if err := s.deps.Inventory.DecrementForSale(ctx, tx, order.BranchID, saleLines(order.Items)); err != nil {
		return err
	}

	switch order.PaymentMethod {
	case enums.PaymentMethodWallet:
		_, err := s.deps.Wallet.WithTx(tx).Debit(ctx, wallet.MovementInput{
			UserID:        order.UserID,
			Type:          enums.WalletTransactionPayment,
			AmountHalalas: order.TotalHalalas,
			OrderID:       &order.ID,
			Reference:     "order payment",
		})
		if err != nil {
			return err
		}
	case enums.PaymentMethodCash:
		if err := s.deps.Shifts.RecordCashSale(ctx, tx, shift.ID, order.TotalHalalas); err != nil {
			return err
		}
	case enums.PaymentMethodApplePay:
		// The Apple Pay token is captured client-side; nothing moves here.
	}

	ok, err := s.deps.Orders.WithTx(tx).MarkPaid(ctx, order.ID, s.now())
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "marking order paid")
	}
	if !ok {
		return errors.New(errors.CodeStateConflict, "order settled concurrently")
	}
	order.PaymentStatus = enums.PaymentStatusPaid
	order.Status = enums.OrderStatusProcessing

	return s.finalizePaid(ctx, tx, order, order.UserID)
}

// finalizePaid runs the post-payment bookkeeping shared by sync settlement
// and async confirmation: cashback, coupon usage, invoice, loyalty, audit
// and the paid event.
func (s *service) finalizePaid(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID) error {
	if order.CashbackHalalas > 0 {
		_, err := s.deps.Wallet.WithTx(tx).Credit(ctx, wallet.MovementInput{
			UserID:        order.UserID,
			Type:          enums.WalletTransactionCashback,
			AmountHalalas: order.CashbackHalalas,
			OrderID:       &order.ID,
			Reference:     "order cashback",
		})
		if err != nil {
			return err
		}
	}

	if order.CouponCode != nil {
		if err := s.deps.Coupons.WithTx(tx).Consume(ctx, *order.CouponCode); err != nil {
			return err
		}
	}

	if _, err := s.deps.Invoices.WithTx(tx).IssueForOrder(ctx, order); err != nil {
		return err
	}

	if err := s.deps.Users.WithTx(tx).AddLoyalty(ctx, order.UserID, order.LoyaltyPoints, order.TotalHalalas); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "adding loyalty points")
	}

	if err := s.deps.Audit.Record(ctx, tx, audit.Entry{
		ActorID:    actorID,
		Action:     "order.paid",
		EntityType: "order",
		EntityID:   order.ID,
		Detail: map[string]any{
			"method":          order.PaymentMethod,
			"totalHalalas":    order.TotalHalalas,
			"cashbackHalalas": order.CashbackHalalas,
		},
	}); err != nil {
		return err
	}

	return s.emitOrderEvent(ctx, tx, order, enums.EventOrderPaid, nil)
}

// initiateRedirect calls the provider after the order transaction committed.
// Initiate is never retried; a second call could open a duplicate charge.
func (s *service) initiateRedirect(ctx context.Context, order *models.Order, session *models.PaymentSession) (*Result, error) {
	adapter, err := s.deps.Gateways.Get(order.PaymentMethod)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "resolving gateway")
	}

	buyer, err := s.deps.Users.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading buyer")
	}

	initiated, err := adapter.Initiate(ctx, gateway.InitiateInput{
		OrderID:       order.ID,
		SessionID:     session.ID,
		AmountHalalas: order.TotalHalalas,
		Currency:      "SAR",
		Description:   fmt.Sprintf("Order %s", shortOrderRef(order.ID)),
		CustomerEmail: buyer.Email,
		CustomerPhone: buyer.Phone,
	})
	if err != nil {
		if failErr := s.failAfterInitiate(ctx, order, session, err); failErr != nil && s.deps.Logger != nil {
			s.deps.Logger.Error(ctx, "failing order after gateway initiate error", failErr)
		}
		return nil, err
	}

	if err := s.deps.Sessions.Attach(ctx, session.ID, initiated); err != nil {
		return nil, err
	}
	order.PaymentStatus = enums.PaymentStatusPending

	sessionID := session.ID
	return &Result{Order: order, RedirectURL: initiated.RedirectURL, SessionID: &sessionID}, nil
}

// failAfterInitiate closes out an order whose provider initiate call failed.
// No stock or funds moved, so the only work is the terminal transition.
func (s *service) failAfterInitiate(ctx context.Context, order *models.Order, session *models.PaymentSession, cause error) error {
	reason := "gateway initiate failed"
	var appErr *errors.Error
	if errors.As(cause, &appErr) {
		reason = appErr.Error()
	}
	_, err := s.FailPayment(ctx, FailInput{
		OrderID:   order.ID,
		SessionID: &session.ID,
		Reason:    reason,
		ActorID:   order.UserID,
	})
	return err
}

func (s *service) ReinitiatePayment(ctx context.Context, orderID, actorID uuid.UUID, method enums.PaymentMethod) (*Result, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actorID {
		return nil, errors.New(errors.CodeForbidden, "order belongs to another user")
	}
	if !order.PaymentMethod.IsRedirect() {
		return nil, errors.New(errors.CodeValidation, "payment method does not use a redirect flow")
	}
	if method != "" && order.PaymentMethod != method {
		return nil, errors.New(errors.CodeValidation, "order was placed with a different payment method")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, errors.New(errors.CodeStateConflict, "order payment already resolved")
	}

	var session *models.PaymentSession
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		opened, openErr := s.deps.Sessions.Open(ctx, tx, order)
		if openErr != nil {
			return openErr
		}
		session = opened
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.initiateRedirect(ctx, order, session)
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error) {
	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	switch input.Outcome {
	case gateway.OutcomePaid:
		return s.confirmPaid(ctx, order, input)
	case gateway.OutcomeFailed:
		reason := input.FailureCode
		if reason == "" {
			reason = "payment declined"
		}
		return s.FailPayment(ctx, FailInput{
			OrderID:   order.ID,
			SessionID: input.SessionID,
			Reason:    reason,
			ActorID:   actorOr(input.ActorID, order.UserID),
		})
	case gateway.OutcomePending:
		return order, nil
	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown payment outcome %q", input.Outcome))
	}
}

func (s *service) confirmPaid(ctx context.Context, order *models.Order, input ConfirmInput) (*models.Order, error) {
	// Replayed webhooks land here; a paid order is already settled.
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return order, nil
	}
	if order.PaymentStatus.IsTerminal() {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("order payment already %s", order.PaymentStatus))
	}

	actorID := actorOr(input.ActorID, order.UserID)
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.deps.Orders.WithTx(tx).MarkPaid(ctx, order.ID, s.now())
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "marking order paid")
		}
		if !ok {
			// Lost the race to another confirm; surface as the idempotent
			// no-op outside the transaction.
			return errAlreadyResolved
		}
		order.PaymentStatus = enums.PaymentStatusPaid
		order.Status = enums.OrderStatusProcessing

		// Stock was deferred while the payment was pending.
		if err := s.deps.Inventory.DecrementForSale(ctx, tx, order.BranchID, saleLines(order.Items)); err != nil {
			return err
		}

		if input.SessionID != nil {
			if _, err := s.deps.Sessions.Close(ctx, tx, *input.SessionID, enums.SessionStatusConfirmed, nil); err != nil {
				return err
			}
		}
		return s.finalizePaid(ctx, tx, order, actorID)
	})
	if err != nil {
		if stderrors.Is(err, errAlreadyResolved) {
			return s.loadOrder(ctx, order.ID)
		}
		var appErr *errors.Error
		if errors.As(err, &appErr) && appErr.Code() == errors.CodeStateConflict {
			// The buyer paid but the branch can no longer fulfill. Fail the
			// order and push the captured amount into the wallet.
			return s.compensateUnfulfillable(ctx, order, input, err)
		}
		return nil, err
	}
	return order, nil
}

// compensateUnfulfillable handles a paid confirmation that cannot take
// stock: the order fails terminally and the captured total is refunded to
// the buyer's wallet.
func (s *service) compensateUnfulfillable(ctx context.Context, order *models.Order, input ConfirmInput, cause error) (*models.Order, error) {
	actorID := actorOr(input.ActorID, order.UserID)
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.deps.Orders.WithTx(tx).MarkFailed(ctx, order.ID, "insufficient stock at settlement")
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "failing order")
		}
		if !ok {
			return errAlreadyResolved
		}
		order.PaymentStatus = enums.PaymentStatusFailed
		order.Status = enums.OrderStatusCancelled

		if order.PaymentMethod.IsRedirect() {
			if _, err := s.deps.Wallet.WithTx(tx).Credit(ctx, wallet.MovementInput{
				UserID:        order.UserID,
				Type:          enums.WalletTransactionRefund,
				AmountHalalas: order.TotalHalalas,
				OrderID:       &order.ID,
				Reference:     "refund for unfulfillable order",
			}); err != nil {
				return err
			}
		}

		if input.SessionID != nil {
			code := "insufficient_stock"
			if _, err := s.deps.Sessions.Close(ctx, tx, *input.SessionID, enums.SessionStatusFailed, &code); err != nil {
				return err
			}
		}

		if err := s.deps.Audit.Record(ctx, tx, audit.Entry{
			ActorID:    actorID,
			Action:     "order.failed",
			EntityType: "order",
			EntityID:   order.ID,
			Detail:     map[string]any{"reason": "insufficient stock", "refunded": order.PaymentMethod.IsRedirect()},
		}); err != nil {
			return err
		}
		return s.emitOrderEvent(ctx, tx, order, enums.EventOrderFailed, map[string]any{
			"reason": "insufficient stock",
		})
	})
	if err != nil && !stderrors.Is(err, errAlreadyResolved) {
		return nil, err
	}
	return nil, errors.Wrap(errors.CodeStateConflict, cause, "order failed: stock no longer available")
}

func (s *service) FailPayment(ctx context.Context, input FailInput) (*models.Order, error) {
	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusFailed {
		return order, nil
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("order payment already %s", order.PaymentStatus))
	}

	actorID := actorOr(input.ActorID, order.UserID)
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.deps.Orders.WithTx(tx).MarkFailed(ctx, order.ID, input.Reason)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "failing order")
		}
		if !ok {
			return errAlreadyResolved
		}
		order.PaymentStatus = enums.PaymentStatusFailed
		order.Status = enums.OrderStatusCancelled
		reason := input.Reason
		order.FailureReason = &reason

		if input.SessionID != nil {
			code := input.Reason
			if _, err := s.deps.Sessions.Close(ctx, tx, *input.SessionID, enums.SessionStatusFailed, &code); err != nil {
				return err
			}
		}

		if err := s.deps.Audit.Record(ctx, tx, audit.Entry{
			ActorID:    actorID,
			Action:     "order.failed",
			EntityType: "order",
			EntityID:   order.ID,
			Detail:     map[string]any{"reason": input.Reason},
		}); err != nil {
			return err
		}
		return s.emitOrderEvent(ctx, tx, order, enums.EventOrderFailed, map[string]any{
			"reason": input.Reason,
		})
	})
	if err != nil {
		if stderrors.Is(err, errAlreadyResolved) {
			return s.loadOrder(ctx, order.ID)
		}
		return nil, err
	}
	return order, nil
}

var errAlreadyResolved = stderrors.New("order already resolved")

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.deps.Orders.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// snapshotCart resolves each requested line against the live catalog and
// freezes name, SKU and unit price into the order items.
func (s *service) snapshotCart(ctx context.Context, lines []CartLine) (types.OrderItems, error) {
	items := make(types.OrderItems, 0, len(lines))
	for _, line := range lines {
		product, err := s.deps.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New(errors.CodeNotFound, "product not found").
					WithDetails(map[string]string{"productId": line.ProductID.String()})
			}
			return nil, errors.Wrap(errors.CodeInternal, err, "loading product")
		}
		if !product.Active {
			return nil, errors.New(errors.CodeConflict, fmt.Sprintf("product %s is not for sale", product.SKU))
		}

		unitPrice := product.PriceHalalas
		name := product.Name
		if line.VariantID != nil {
			variant, err := s.deps.Products.GetVariant(ctx, line.ProductID, *line.VariantID)
			if err != nil {
				if stderrors.Is(err, gorm.ErrRecordNotFound) {
					return nil, errors.New(errors.CodeNotFound, "product variant not found")
				}
				return nil, errors.Wrap(errors.CodeInternal, err, "loading product variant")
			}
			if !variant.Active {
				return nil, errors.New(errors.CodeConflict, fmt.Sprintf("variant of %s is not for sale", product.SKU))
			}
			unitPrice += variant.PriceDeltaHalalas
			name = fmt.Sprintf("%s / %s", product.Name, variant.Name)
		}

		items = append(items, types.OrderItemSnapshot{
			ProductID:        product.ID,
			VariantID:        line.VariantID,
			SKU:              product.SKU,
			Name:             name,
			Quantity:         line.Quantity,
			UnitPriceHalalas: unitPrice,
			LineTotalHalalas: unitPrice * int64(line.Quantity),
		})
	}
	return items, nil
}

func (s *service) emitOrderEvent(ctx context.Context, tx *gorm.DB, order *models.Order, eventType enums.OutboxEventType, extra map[string]any) error {
	data := map[string]any{
		"userId":        order.UserID,
		"branchId":      order.BranchID,
		"method":        order.PaymentMethod,
		"totalHalalas":  order.TotalHalalas,
		"paymentStatus": order.PaymentStatus,
	}
	for k, v := range extra {
		data[k] = v
	}
	return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID},
		Data:          data,
		Version:       1,
	})
}

func buildOrder(input CheckoutInput, items types.OrderItems, breakdown types.PricingBreakdown, coupon *models.Coupon, shift *models.CashShift) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		BranchID:        input.BranchID,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		Status:          enums.OrderStatusNew,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		SubtotalHalalas: breakdown.SubtotalHalalas,
		TaxHalalas:      breakdown.TaxHalalas,
		ShippingHalalas: breakdown.ShippingHalalas,
		DiscountHalalas: breakdown.DiscountHalalas,
		CashbackHalalas: breakdown.CashbackHalalas,
		TotalHalalas:    breakdown.TotalHalalas,
		LoyaltyPoints:   breakdown.LoyaltyPoints,
	}
	if coupon != nil {
		code := coupon.Code
		order.CouponCode = &code
	}
	if shift != nil {
		shiftID := shift.ID
		order.ShiftID = &shiftID
	}
	return order
}

func saleLines(items types.OrderItems) []inventory.SaleLine {
	lines := make([]inventory.SaleLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.SaleLine{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return lines
}

func validateCheckout(input CheckoutInput) error {
	if input.UserID == uuid.Nil {
		return errors.New(errors.CodeValidation, "user id is required")
	}
	if input.BranchID == uuid.Nil {
		return errors.New(errors.CodeValidation, "branch id is required")
	}
	if len(input.Lines) == 0 {
		return errors.New(errors.CodeValidation, "cart is empty")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return errors.New(errors.CodeValidation, "cart line missing product id")
		}
		if line.Quantity <= 0 {
			return errors.New(errors.CodeValidation, "cart line quantity must be positive")
		}
	}
	if !input.PaymentMethod.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	return nil
}

func actorOr(actor, fallback uuid.UUID) uuid.UUID {
	if actor != uuid.Nil {
		return actor
	}
	return fallback
}

func shortOrderRef(id uuid.UUID) string {
	return id.String()[:8]
}
