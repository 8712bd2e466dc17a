package model

import "strings"

// Role is the advisory role claim attached to a session.
type Role string

// Role codes as stored in the Users sheet
const (
	RoleCustomer Role = "customer"
	RoleRetailer Role = "retailer"
	RoleAdmin    Role = "admin"
)

// DefaultRole applies to unauthenticated and unresolved sessions.
const DefaultRole = RoleCustomer

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRetailer, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps a raw directory value to a Role, falling back to
// DefaultRole for anything unknown.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return DefaultRole
	}
	return r
}

// Label is the human readable role name.
func (r Role) Label() string {
	switch r {
	case RoleRetailer:
		return "Retailer"
	case RoleAdmin:
		return "Admin"
	default:
		return "Customer"
	}
}
