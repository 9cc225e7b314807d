package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxBranchID contextKey = "branch_id"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

func BranchIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxBranchID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

// WithActor seeds the context the way the auth middleware does; tests use it
// to exercise handlers without minting tokens.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.Role, branchID *uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if branchID != nil {
		ctx = context.WithValue(ctx, ctxBranchID, *branchID)
	}
	return ctx
}
