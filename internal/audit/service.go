package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

// Service writes and reads the audit trail.
type Service interface {
	// Record appends an entry. When tx is non-nil the entry commits with
	// the caller's transaction.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.AuditLog, error)
}

// Entry is one auditable action.
type Entry struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Detail     any
}

type service struct {
	repo Repository
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.ActorID == uuid.Nil {
		return errors.New(errors.CodeValidation, "audit actor is required")
	}
	if entry.Action == "" || entry.EntityType == "" {
		return errors.New(errors.CodeValidation, "audit action and entity type are required")
	}

	var detail json.RawMessage
	if entry.Detail != nil {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "encoding audit detail")
		}
		detail = raw
	}

	row := &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     detail,
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "writing audit entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.AuditLog, error) {
	entries, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing audit entries")
	}
	return entries, nil
}
