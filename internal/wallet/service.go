package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

// Service moves wallet money. Every balance change writes the conditional
// balance update and the ledger row inside the caller's transaction, so the
// ledger always replays to the stored balance.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Debit(ctx context.Context, input MovementInput) (*models.WalletTransaction, error)
	Credit(ctx context.Context, input MovementInput) (*models.WalletTransaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error)
	// RebuildBalance resets the stored balance from the ledger sum and
	// returns the recomputed value. Admin-only repair path.
	RebuildBalance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// MovementInput describes one wallet movement.
type MovementInput struct {
	UserID        uuid.UUID
	Type          enums.WalletTransactionType
	AmountHalalas int64
	OrderID       *uuid.UUID
	Reference     string
}

type service struct {
	repo Repository
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Debit(ctx context.Context, input MovementInput) (*models.WalletTransaction, error) {
	if err := validateMovement(input); err != nil {
		return nil, err
	}
	if input.Type.IsCredit() {
		return nil, errors.New(errors.CodeValidation, "debit called with a credit transaction type")
	}

	ok, err := s.repo.DebitBalance(ctx, input.UserID, input.AmountHalalas)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "debiting wallet")
	}
	if !ok {
		return nil, errors.New(errors.CodeInsufficientBalance, "wallet balance does not cover the amount")
	}
	return s.appendLedger(ctx, input)
}

func (s *service) Credit(ctx context.Context, input MovementInput) (*models.WalletTransaction, error) {
	if err := validateMovement(input); err != nil {
		return nil, err
	}
	if !input.Type.IsCredit() {
		return nil, errors.New(errors.CodeValidation, "credit called with a debit transaction type")
	}

	if err := s.repo.CreditBalance(ctx, input.UserID, input.AmountHalalas); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "crediting wallet")
	}
	return s.appendLedger(ctx, input)
}

func (s *service) appendLedger(ctx context.Context, input MovementInput) (*models.WalletTransaction, error) {
	balance, err := s.repo.GetBalance(ctx, input.UserID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "reading wallet balance")
	}
	txn := &models.WalletTransaction{
		ID:                  uuid.New(),
		UserID:              input.UserID,
		Type:                input.Type,
		AmountHalalas:       input.AmountHalalas,
		BalanceAfterHalalas: balance,
		OrderID:             input.OrderID,
		Reference:           input.Reference,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "writing wallet ledger")
	}
	return txn, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, errors.New(errors.CodeValidation, "user id is required")
	}
	return s.repo.GetBalance(ctx, userID)
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	return s.repo.ListTransactions(ctx, userID, params)
}

func (s *service) RebuildBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, errors.New(errors.CodeValidation, "user id is required")
	}
	total, err := s.repo.SumLedger(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "summing wallet ledger")
	}
	if total < 0 {
		total = 0
	}
	if err := s.repo.SetBalance(ctx, userID, total); err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "resetting wallet balance")
	}
	return total, nil
}

func validateMovement(input MovementInput) error {
	if input.UserID == uuid.Nil {
		return errors.New(errors.CodeValidation, "user id is required")
	}
	if input.AmountHalalas <= 0 {
		return errors.New(errors.CodeValidation, "amount must be positive")
	}
	if !input.Type.IsValid() {
		return errors.New(errors.CodeValidation, "invalid wallet transaction type")
	}
	return nil
}
