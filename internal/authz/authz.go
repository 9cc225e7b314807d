package authz

import "github.com/hasanfarsi/dukkan-backend/pkg/enums"

// Capability is one named permission. Handlers declare the capability they
// need instead of comparing roles inline, so widening a role is a one-line
// change here.
type Capability string

const (
	CapCheckout         Capability = "checkout:create"
	CapOrdersRead       Capability = "orders:read"
	CapOrdersAdvance    Capability = "orders:advance"
	CapWalletRead       Capability = "wallet:read"
	CapWalletDeposit    Capability = "wallet:deposit"
	CapWalletRebuild    Capability = "wallet:rebuild"
	CapInventoryRead    Capability = "inventory:read"
	CapInventoryWrite   Capability = "inventory:write"
	CapTransfersRequest Capability = "transfers:request"
	CapTransfersResolve Capability = "transfers:resolve"
	CapShiftsManage     Capability = "shifts:manage"
	CapProductsWrite    Capability = "products:write"
	CapAuditRead        Capability = "audit:read"
)

var roleCapabilities = map[enums.Role]map[Capability]struct{}{
	enums.RoleCustomer: capSet(
		CapCheckout,
		CapOrdersRead,
		CapWalletRead,
	),
	enums.RoleCashier: capSet(
		CapCheckout,
		CapOrdersRead,
		CapWalletRead,
		CapInventoryRead,
		CapShiftsManage,
	),
	enums.RoleManager: capSet(
		CapCheckout,
		CapOrdersRead,
		CapOrdersAdvance,
		CapWalletRead,
		CapInventoryRead,
		CapInventoryWrite,
		CapTransfersRequest,
		CapTransfersResolve,
		CapShiftsManage,
		CapProductsWrite,
	),
	enums.RoleAdmin: capSet(
		CapCheckout,
		CapOrdersRead,
		CapOrdersAdvance,
		CapWalletRead,
		CapWalletDeposit,
		CapWalletRebuild,
		CapInventoryRead,
		CapInventoryWrite,
		CapTransfersRequest,
		CapTransfersResolve,
		CapShiftsManage,
		CapProductsWrite,
		CapAuditRead,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Allowed reports whether the role carries the capability.
func Allowed(role enums.Role, cap Capability) bool {
	set, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	_, ok = set[cap]
	return ok
}
