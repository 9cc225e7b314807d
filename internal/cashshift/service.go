package cashshift

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/outbox"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type shiftLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ShiftLockKey(cashierID string) string
}

const openLockTTL = 10 * time.Second

// Service manages cashier drawer sessions. The partial unique index on open
// shifts is the hard guarantee; the Redis lock only shrinks the window where
// two concurrent opens race to a constraint error.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.CashShift, error)
	Close(ctx context.Context, input CloseInput) (*models.CashShift, error)
	Current(ctx context.Context, cashierID uuid.UUID) (*models.CashShift, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CashShift, error)
	ListForBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.CashShift, error)
	// RecordCashSale adds a paid cash order onto the shift inside the
	// settlement transaction.
	RecordCashSale(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID, amountHalalas int64) error
}

// OpenInput opens a drawer for a cashier.
type OpenInput struct {
	CashierID          uuid.UUID
	BranchID           uuid.UUID
	OpeningCashHalalas int64
}

// CloseInput settles a drawer with the counted cash.
type CloseInput struct {
	ShiftID            uuid.UUID
	CashierID          uuid.UUID
	CountedCashHalalas int64
}

type service struct {
	tx     txRunner
	repo   Repository
	locker shiftLocker
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds the cash shift service.
func NewService(tx txRunner, repo Repository, locker shiftLocker, publisher outboxPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("shift repository required")
	}
	if locker == nil {
		return nil, fmt.Errorf("shift locker required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{tx: tx, repo: repo, locker: locker, outbox: publisher, now: time.Now}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.CashShift, error) {
	if input.CashierID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "cashier id is required")
	}
	if input.BranchID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "branch id is required")
	}
	if input.OpeningCashHalalas < 0 {
		return nil, errors.New(errors.CodeValidation, "opening cash must not be negative")
	}

	lockKey := s.locker.ShiftLockKey(input.CashierID.String())
	acquired, err := s.locker.SetNX(ctx, lockKey, "1", openLockTTL)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "acquiring shift lock")
	}
	if !acquired {
		return nil, errors.New(errors.CodeConflict, "shift open already in progress")
	}
	defer func() { _ = s.locker.Del(ctx, lockKey) }()

	if _, err := s.repo.GetOpenByCashier(ctx, input.CashierID); err == nil {
		return nil, errors.New(errors.CodeConflict, "cashier already has an open shift")
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking open shift")
	}

	shift := &models.CashShift{
		ID:                 uuid.New(),
		CashierID:          input.CashierID,
		BranchID:           input.BranchID,
		Status:             enums.ShiftStatusOpen,
		OpeningCashHalalas: input.OpeningCashHalalas,
		OpenedAt:           s.now(),
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		// Two opens can race past the lock; the partial unique index settles it.
		if db.IsUniqueViolation(err, "idx_cash_shifts_one_open") {
			return nil, errors.New(errors.CodeConflict, "cashier already has an open shift")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "creating shift")
	}
	return shift, nil
}

func (s *service) Close(ctx context.Context, input CloseInput) (*models.CashShift, error) {
	if input.CountedCashHalalas < 0 {
		return nil, errors.New(errors.CodeValidation, "counted cash must not be negative")
	}

	shift, err := s.Get(ctx, input.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift.CashierID != input.CashierID {
		return nil, errors.New(errors.CodeForbidden, "shift belongs to another cashier")
	}
	if shift.Status != enums.ShiftStatusOpen {
		return nil, errors.New(errors.CodeStateConflict, "shift is already closed")
	}

	closedAt := s.now()

	// Expected cash is the float plus everything sold for cash on this
	// shift. The update computes it so sales racing the close still count;
	// the re-read inside the transaction picks up the settled figures.
	var closed *models.CashShift
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Close(ctx, shift.ID, input.CountedCashHalalas, closedAt)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "closing shift")
		}
		if !ok {
			return errors.New(errors.CodeStateConflict, "shift closed concurrently")
		}

		closed, err = repo.GetByID(ctx, shift.ID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "reloading closed shift")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShiftClosed,
			AggregateType: enums.AggregateShift,
			AggregateID:   closed.ID,
			Actor:         &outbox.ActorRef{UserID: input.CashierID},
			Data: map[string]any{
				"branchId":        closed.BranchID,
				"expectedHalalas": closed.ExpectedCashHalalas,
				"countedHalalas":  closed.CountedCashHalalas,
				"varianceHalalas": closed.VarianceHalalas,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *service) Current(ctx context.Context, cashierID uuid.UUID) (*models.CashShift, error) {
	shift, err := s.repo.GetOpenByCashier(ctx, cashierID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "no open shift")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading open shift")
	}
	return shift, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.CashShift, error) {
	shift, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "shift not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading shift")
	}
	return shift, nil
}

func (s *service) ListForBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.CashShift, error) {
	return s.repo.ListByBranch(ctx, branchID, params)
}

func (s *service) RecordCashSale(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID, amountHalalas int64) error {
	if amountHalalas <= 0 {
		return errors.New(errors.CodeValidation, "cash sale amount must be positive")
	}
	ok, err := s.repo.WithTx(tx).AddCashSale(ctx, shiftID, amountHalalas)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "recording cash sale")
	}
	if !ok {
		return errors.New(errors.CodeStateConflict, "shift is not open")
	}
	return nil
}
