package auth

import "strings"

// UserRole is the user's role
type UserRole = string

// RoleCustomer is the fixed default role assigned at registration.
const RoleCustomer UserRole = "customer"

// rolePermissions is a closed lookup table, not a hierarchy. Authority
// derivation must stay a pure function of the role.
var rolePermissions = map[UserRole][]string{
	RoleCustomer: {"READ:CUSTOMER"},
}

// RoleAuthorities returns the authority strings granted by a role: its
// permission set plus a ROLE_<NAME> marker. The result is a fresh slice.
func RoleAuthorities(role UserRole) []string {
	perms := rolePermissions[role]

	authorities := make([]string, 0, len(perms)+1)
	authorities = append(authorities, perms...)
	authorities = append(authorities, "ROLE_"+strings.ToUpper(role))

	return authorities
}

type userPrincipal struct {
	email string
	role  UserRole
}

// NewPrincipal builds the Principal used for access token claims: the
// user's unique login identifier plus the authorities derived from its role.
func NewPrincipal(user *User) Principal {
	return userPrincipal{email: user.Email, role: user.Role}
}

func (p userPrincipal) Subject() string { return p.email }

func (p userPrincipal) Authorities() []string { return RoleAuthorities(p.role) }
