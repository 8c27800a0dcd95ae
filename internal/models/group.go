package models

// GroupRole describes a member's role within a group.
type GroupRole string

const (
	RoleAdmin  GroupRole = "admin"
	RoleMember GroupRole = "member"
)

// Group represents a named collection of users sharing expenses.
//
// Invariant: TotalExpenses equals the sum of all contained expense amounts,
// recorded in whatever currency each expense used (no FX normalization). The
// cached total is maintained in the same storage transaction that appends the
// expense.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`

	// Creator is the wallet address of the member who created the group.
	// The creator holds the admin role.
	Creator string `json:"creator"`

	// Members is the set of member wallet addresses.
	Members []string `json:"members"`

	// DefaultCurrency is the group's default expense currency.
	DefaultCurrency string `json:"defaultCurrency"`

	// TotalExpenses is the cached sum of all expense amounts in this group.
	TotalExpenses float64 `json:"totalExpenses"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// HasMember reports whether the wallet address is a member of the group.
func (g *Group) HasMember(address string) bool {
	for _, m := range g.Members {
		if m == address {
			return true
		}
	}
	return false
}

// RoleOf returns the role the wallet address holds in the group.
func (g *Group) RoleOf(address string) GroupRole {
	if address == g.Creator {
		return RoleAdmin
	}
	return RoleMember
}
