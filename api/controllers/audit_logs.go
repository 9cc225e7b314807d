package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/api/validators"
	"github.com/hasanfarsi/dukkan-backend/internal/audit"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
	"github.com/hasanfarsi/dukkan-backend/pkg/pagination"
)

type auditLogResponse struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ListAuditLogs exposes the append-only audit trail to admins.
func ListAuditLogs(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := validators.ParseQueryUUIDOptional(r, "actor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entityID, err := validators.ParseQueryUUIDOptional(r, "entity_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := audit.ListFilter{
			ActorID:    actorID,
			EntityID:   entityID,
			EntityType: strings.TrimSpace(r.URL.Query().Get("entity_type")),
			Action:     strings.TrimSpace(r.URL.Query().Get("action")),
		}

		rows, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.NewPage(rows, params.Limit, func(l *models.AuditLog) pagination.Cursor {
			return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
		})
		out := make([]auditLogResponse, 0, len(page.Items))
		for _, row := range page.Items {
			out = append(out, auditLogResponse{
				ID:         row.ID,
				ActorID:    row.ActorID,
				Action:     row.Action,
				EntityType: row.EntityType,
				EntityID:   row.EntityID,
				Detail:     row.Detail,
				CreatedAt:  row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, auditLogListResponse{Items: out, NextCursor: page.NextCursor})
	}
}

type auditLogListResponse struct {
	Items      []auditLogResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}
