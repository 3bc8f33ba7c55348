// Package auth holds the closed set of capabilities and the roles that grant
// them. Handlers ask an Authorizer before any mutation.
package auth

type Capability string

const (
	OrdersRead     Capability = "orders:read"
	OrdersWrite    Capability = "orders:write"
	OrdersCancel   Capability = "orders:cancel"
	KitchenUpdate  Capability = "kitchen:update"
	TablesRead     Capability = "tables:read"
	TablesWrite    Capability = "tables:write"
	MenuRead       Capability = "menu:read"
	MenuWrite      Capability = "menu:write"
	LedgerRead     Capability = "ledger:read"
	LedgerWrite    Capability = "ledger:write"
	LedgerDelete   Capability = "ledger:delete"
	InventoryRead  Capability = "inventory:read"
	InventoryWrite Capability = "inventory:write"
	SalesRead      Capability = "sales:read"
	SalesWrite     Capability = "sales:write"
	SalesVoid      Capability = "sales:void"
)

// AllCapabilities lists every capability in a stable order.
var AllCapabilities = []Capability{
	OrdersRead, OrdersWrite, OrdersCancel, KitchenUpdate,
	TablesRead, TablesWrite, MenuRead, MenuWrite,
	LedgerRead, LedgerWrite, LedgerDelete,
	InventoryRead, InventoryWrite,
	SalesRead, SalesWrite, SalesVoid,
}

type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
)

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleCapabilities[r]
	return r, ok
}

var roleCapabilities = map[Role]map[Capability]bool{
	RoleOwner:   set(AllCapabilities...),
	RoleManager: set(AllCapabilities...),
	RoleCashier: set(
		OrdersRead, OrdersWrite, OrdersCancel,
		TablesRead, TablesWrite, MenuRead,
		LedgerRead, LedgerWrite,
		InventoryRead,
		SalesRead, SalesWrite,
	),
	RoleWaiter: set(
		OrdersRead, OrdersWrite, KitchenUpdate,
		TablesRead, TablesWrite, MenuRead,
	),
	RoleKitchen: set(OrdersRead, KitchenUpdate, MenuRead, InventoryRead),
}

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

// Authorizer decides whether a tenant-scoped actor may use a capability.
type Authorizer interface {
	Allowed(role Role, capability Capability) bool
}

// RoleAuthorizer grants capabilities from the static role table.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Allowed(role Role, capability Capability) bool {
	return roleCapabilities[role][capability]
}
