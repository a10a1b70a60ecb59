package shared

import "github.com/google/uuid"

// Capability identifies a permission the calling actor holds. Capability
// resolution (roles, tokens) is done by the authorization collaborator
// outside the core; the core only enforces the guards.
type Capability string

const (
	// CapabilityApproveInvoice allows approving invoices pending approval
	CapabilityApproveInvoice Capability = "invoice:approve"
	// CapabilityFinanceOverride allows editing locked financial documents
	// and withdrawing invoices submitted by other users
	CapabilityFinanceOverride Capability = "finance:override"
	// CapabilityManageRates allows writing exchange rates
	CapabilityManageRates Capability = "currency:manage"
)

// Actor is the authenticated user on whose behalf an operation runs
type Actor struct {
	ID           uuid.UUID
	Name         string
	Capabilities []Capability
}

// Can reports whether the actor holds the given capability
func (a Actor) Can(c Capability) bool {
	for _, held := range a.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}

// SystemActor is used for operations not initiated by a user, such as the
// scheduled overdue check.
func SystemActor() Actor {
	return Actor{
		ID:   uuid.Nil,
		Name: "system",
		Capabilities: []Capability{
			CapabilityApproveInvoice,
			CapabilityFinanceOverride,
			CapabilityManageRates,
		},
	}
}
