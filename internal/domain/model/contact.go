package model

// Role identifies a party interested in lifecycle events.
type Role string

const (
	// RoleClient is the customer whose appliance is being repaired.
	RoleClient Role = "client"
	// RoleTechnician is the field technician assigned to the job.
	RoleTechnician Role = "technician"
	// RoleAdmin is back-office staff.
	RoleAdmin Role = "admin"
	// RolePartner is an optional reselling business partner.
	RolePartner Role = "partner"
	// RoleSupplier is the external spare-part supplier.
	RoleSupplier Role = "supplier"
)

// Valid returns true if the Role is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTechnician, RoleAdmin, RolePartner, RoleSupplier:
		return true
	}
	return false
}

// Actor identifies the caller of a mutating operation.
type Actor struct {
	Role Role
	ID   string
}

// Contact is the resolved reachability record for a role+id pair, as returned
// by the contact directory collaborator. Either field may be empty.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Reachable reports whether at least one channel is configured.
func (c Contact) Reachable() bool {
	return c.Email != "" || c.Phone != ""
}
