package inventory

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

// Service manages per-location stock and the transfer state machine. The
// central warehouse is just another branch; every movement between two
// locations runs through the same code path.
type Service interface {
	SetStock(ctx context.Context, input SetStockInput) (*models.StockRecord, error)
	Stock(ctx context.Context, key StockKey) (*models.StockRecord, error)
	BranchStock(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error)
	LowStock(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error)
	// DecrementForSale pulls sold quantities out of branch stock inside the
	// caller's transaction; used by settlement when an order turns paid.
	DecrementForSale(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []SaleLine) error
	// RestoreForSale reverses DecrementForSale for returned orders.
	RestoreForSale(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []SaleLine) error

	RequestTransfer(ctx context.Context, input TransferInput) (*models.StockTransfer, error)
	CompleteTransfer(ctx context.Context, transferID, actorID uuid.UUID) (*models.StockTransfer, error)
	CancelTransfer(ctx context.Context, transferID, actorID uuid.UUID) (*models.StockTransfer, error)
	Transfers(ctx context.Context, branchID *uuid.UUID, params pagination.Params) ([]models.StockTransfer, error)
}

// SetStockInput establishes or overwrites one stock row.
type SetStockInput struct {
	Key           StockKey
	Quantity      int
	MinStockLevel int
}

// SaleLine is one sold product/quantity pair.
type SaleLine struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// TransferInput describes a requested stock movement.
type TransferInput struct {
	FromBranchID uuid.UUID
	ToBranchID   uuid.UUID
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	Quantity     int
	RequestedBy  uuid.UUID
}

type service struct {
	tx       txRunner
	repo     Repository
	outbox   outboxPublisher
	minStock int
}

// NewService builds the inventory service.
func NewService(tx txRunner, repo Repository, publisher outboxPublisher, defaultMinStock int) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if defaultMinStock < 0 {
		defaultMinStock = 0
	}
	return &service{tx: tx, repo: repo, outbox: publisher, minStock: defaultMinStock}, nil
}

func (s *service) SetStock(ctx context.Context, input SetStockInput) (*models.StockRecord, error) {
	if input.Quantity < 0 {
		return nil, errors.New(errors.CodeValidation, "quantity must not be negative")
	}
	minLevel := input.MinStockLevel
	if minLevel <= 0 {
		minLevel = s.minStock
	}
	record := &models.StockRecord{
		ID:            uuid.New(),
		BranchID:      input.Key.BranchID,
		ProductID:     input.Key.ProductID,
		VariantID:     input.Key.VariantID,
		Quantity:      input.Quantity,
		MinStockLevel: minLevel,
	}
	if err := s.repo.UpsertStock(ctx, record); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "writing stock record")
	}
	return record, nil
}

func (s *service) Stock(ctx context.Context, key StockKey) (*models.StockRecord, error) {
	record, err := s.repo.GetStock(ctx, key)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "stock record not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading stock record")
	}
	return record, nil
}

func (s *service) BranchStock(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error) {
	return s.repo.ListByBranch(ctx, branchID)
}

func (s *service) LowStock(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error) {
	return s.repo.ListLowStock(ctx, branchID)
}

func (s *service) DecrementForSale(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []SaleLine) error {
	repo := s.repo.WithTx(tx)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return errors.New(errors.CodeValidation, "sale quantity must be positive")
		}
		key := StockKey{BranchID: branchID, ProductID: line.ProductID, VariantID: line.VariantID}
		ok, err := repo.AddQuantity(ctx, key, -line.Quantity)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "decrementing stock")
		}
		if !ok {
			return errors.New(errors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]any{"productId": line.ProductID, "quantity": line.Quantity})
		}
	}
	return nil
}

func (s *service) RestoreForSale(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []SaleLine) error {
	repo := s.repo.WithTx(tx)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return errors.New(errors.CodeValidation, "restore quantity must be positive")
		}
		key := StockKey{BranchID: branchID, ProductID: line.ProductID, VariantID: line.VariantID}
		if _, err := repo.AddQuantity(ctx, key, line.Quantity); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "restoring stock")
		}
	}
	return nil
}

// RequestTransfer records a pending transfer. No stock moves until the
// transfer is completed; cancelling a pending transfer is a pure status
// change.
func (s *service) RequestTransfer(ctx context.Context, input TransferInput) (*models.StockTransfer, error) {
	if input.Quantity <= 0 {
		return nil, errors.New(errors.CodeValidation, "transfer quantity must be positive")
	}
	if input.FromBranchID == input.ToBranchID {
		return nil, errors.New(errors.CodeValidation, "transfer source and destination must differ")
	}
	if input.RequestedBy == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "requesting user is required")
	}

	transfer := &models.StockTransfer{
		ID:           uuid.New(),
		FromBranchID: input.FromBranchID,
		ToBranchID:   input.ToBranchID,
		ProductID:    input.ProductID,
		VariantID:    input.VariantID,
		Quantity:     input.Quantity,
		Status:       enums.TransferStatusPending,
		RequestedBy:  input.RequestedBy,
	}

	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating transfer")
	}
	return transfer, nil
}

func (s *service) CompleteTransfer(ctx context.Context, transferID, actorID uuid.UUID) (*models.StockTransfer, error) {
	var result *models.StockTransfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		transfer, err := s.loadTransfer(ctx, repo, transferID)
		if err != nil {
			return err
		}

		ok, err := repo.TransitionTransfer(ctx, transferID, enums.TransferStatusCompleted, actorID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "completing transfer")
		}
		if !ok {
			return errors.New(errors.CodeStateConflict, "transfer is no longer pending")
		}

		// Both counters move here and only here, in the same transaction
		// as the status flip.
		srcKey := StockKey{BranchID: transfer.FromBranchID, ProductID: transfer.ProductID, VariantID: transfer.VariantID}
		ok, err = repo.AddQuantity(ctx, srcKey, -transfer.Quantity)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "deducting source stock")
		}
		if !ok {
			return errors.New(errors.CodeStateConflict, "insufficient stock at source location")
		}

		destKey := StockKey{BranchID: transfer.ToBranchID, ProductID: transfer.ProductID, VariantID: transfer.VariantID}
		if err := s.ensureStockRow(ctx, repo, destKey); err != nil {
			return err
		}
		if _, err := repo.AddQuantity(ctx, destKey, transfer.Quantity); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "crediting destination stock")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransferCompleted,
			AggregateType: enums.AggregateTransfer,
			AggregateID:   transfer.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data: map[string]any{
				"fromBranchId": transfer.FromBranchID,
				"toBranchId":   transfer.ToBranchID,
				"productId":    transfer.ProductID,
				"quantity":     transfer.Quantity,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		result = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Status = enums.TransferStatusCompleted
	return result, nil
}

// CancelTransfer flips a pending transfer to cancelled. Nothing was moved
// at request time, so there is no stock to restore.
func (s *service) CancelTransfer(ctx context.Context, transferID, actorID uuid.UUID) (*models.StockTransfer, error) {
	transfer, err := s.loadTransfer(ctx, s.repo, transferID)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.TransitionTransfer(ctx, transferID, enums.TransferStatusCancelled, actorID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "cancelling transfer")
	}
	if !ok {
		return nil, errors.New(errors.CodeStateConflict, "transfer is no longer pending")
	}
	transfer.Status = enums.TransferStatusCancelled
	return transfer, nil
}

func (s *service) Transfers(ctx context.Context, branchID *uuid.UUID, params pagination.Params) ([]models.StockTransfer, error) {
	return s.repo.ListTransfers(ctx, branchID, params)
}

func (s *service) loadTransfer(ctx context.Context, repo Repository, transferID uuid.UUID) (*models.StockTransfer, error) {
	transfer, err := repo.GetTransfer(ctx, transferID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "transfer not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading transfer")
	}
	return transfer, nil
}

func (s *service) ensureStockRow(ctx context.Context, repo Repository, key StockKey) error {
	_, err := repo.GetStock(ctx, key)
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(errors.CodeInternal, err, "loading destination stock")
	}
	record := &models.StockRecord{
		ID:            uuid.New(),
		BranchID:      key.BranchID,
		ProductID:     key.ProductID,
		VariantID:     key.VariantID,
		Quantity:      0,
		MinStockLevel: s.minStock,
	}
	if err := repo.UpsertStock(ctx, record); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "creating destination stock row")
	}
	return nil
}
