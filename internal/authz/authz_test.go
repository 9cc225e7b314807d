package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(enums.RoleCustomer, CapCheckout))
	assert.False(t, Allowed(enums.RoleCustomer, CapAuditRead))
	assert.False(t, Allowed(enums.RoleCashier, CapTransfersResolve))
	assert.True(t, Allowed(enums.RoleCashier, CapShiftsManage))
	assert.True(t, Allowed(enums.RoleManager, CapTransfersResolve))
	assert.False(t, Allowed(enums.RoleManager, CapWalletRebuild))
	assert.True(t, Allowed(enums.RoleAdmin, CapWalletRebuild))
	assert.False(t, Allowed(enums.Role("ghost"), CapCheckout))
}
