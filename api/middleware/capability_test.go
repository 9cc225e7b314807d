package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/internal/authz"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// newTestActorRequest builds a route-patterned request seeded with a fresh
// customer actor.
func newTestActorRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := requestWithPattern(method, path, path, reader)
	ctx := WithActor(req.Context(), uuid.New(), enums.RoleCustomer, nil)
	return req.WithContext(ctx)
}

func serveWithCapability(cap authz.Capability, role enums.Role) (*httptest.ResponseRecorder, bool) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(WithActor(req.Context(), uuid.New(), role, nil))
	resp := httptest.NewRecorder()
	RequireCapability(cap, nil)(handler).ServeHTTP(resp, req)
	return resp, called
}

func TestRequireCapabilityAllowsGrantedRole(t *testing.T) {
	resp, called := serveWithCapability(authz.CapOrdersRead, enums.RoleCustomer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("handler should run for granted capability")
	}
}

func TestRequireCapabilityRejectsMissingGrant(t *testing.T) {
	resp, called := serveWithCapability(authz.CapWalletDeposit, enums.RoleCustomer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if called {
		t.Fatalf("handler must not run without the capability")
	}
}

func TestRequireCapabilityRejectsAnonymous(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run for anonymous request")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	RequireCapability(authz.CapOrdersRead, nil)(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestBranchIDRoundTrip(t *testing.T) {
	branch := uuid.New()
	ctx := WithActor(context.Background(), uuid.New(), enums.RoleCashier, &branch)

	got := BranchIDFromContext(ctx)
	if got == nil || *got != branch {
		t.Fatalf("branch id not recovered from context")
	}
	if BranchIDFromContext(context.Background()) != nil {
		t.Fatalf("expected nil branch for unseeded context")
	}
}
