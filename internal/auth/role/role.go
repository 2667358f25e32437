// Package role defines the opaque role tokens used to address and authorize
// notification recipients. Roles are flat, there is no privilege hierarchy beyond
// the admin override.
package role

import "errors"

var ErrDenied = errors.New("permission denied")

type Role string

const (
	Admin    Role = "admin"
	LabStaff Role = "lab_staff"
	Product  Role = "product"
	Account  Role = "account"
	AllUsers Role = "all_users"
)

// All enumerates the full role vocabulary.
func All() []Role {
	return []Role{Admin, LabStaff, Product, Account, AllUsers}
}

// Known reports whether the token is part of the role vocabulary.
func (r Role) Known() bool {
	switch r {
	case Admin, LabStaff, Product, Account, AllUsers:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
