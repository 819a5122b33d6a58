package directory

import (
	"strings"
	"time"
)

// Role is a staff function within the hospital. Each role maps to one
// workspace screen; admin can open any of them.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleReceptionist Role = "receptionist"
	RoleDoctor       Role = "doctor"
	RoleCashier      Role = "cashier"
	RoleLab          Role = "lab"
	RolePharmacy     Role = "pharmacy"

	// RoleUser is the fallback for accounts with no role assignment. It
	// grants no workspace.
	RoleUser Role = "user"
)

// StaffRoles are the assignable workspace roles. RoleUser is deliberately
// absent: it is a fallback, never assigned.
var StaffRoles = []Role{
	RoleAdmin,
	RoleReceptionist,
	RoleDoctor,
	RoleCashier,
	RoleLab,
	RolePharmacy,
}

// Valid reports whether r is an assignable staff role.
func (r Role) Valid() bool {
	for _, s := range StaffRoles {
		if r == s {
			return true
		}
	}
	return false
}

// Route returns the workspace path for the role, or the restricted page
// for roles without one.
func (r Role) Route() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleReceptionist:
		return "/receptionist"
	case RoleDoctor:
		return "/doctor"
	case RoleCashier:
		return "/cashier"
	case RoleLab:
		return "/lab"
	case RolePharmacy:
		return "/pharmacy"
	default:
		return "/restricted"
	}
}

// ParseRole normalizes raw input into a Role without validating it; callers
// that need an assignable role check Valid separately.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// User is a directory entry. Roles holds zero or more staff roles; the
// login flow treats an empty list as the RoleUser fallback.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Roles      []Role    `json:"roles"`
	IsLoggedIn bool      `json:"isLoggedIn"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EffectiveRoles returns the user's roles, substituting the fallback when
// none are assigned.
func (u *User) EffectiveRoles() []Role {
	if len(u.Roles) == 0 {
		return []Role{RoleUser}
	}
	return u.Roles
}

// HasRole reports whether the user carries the given role. Admin accounts
// satisfy every role check.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == RoleAdmin || r == role {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand records out safely.
func (u *User) Clone() *User {
	cp := *u
	cp.Roles = append([]Role(nil), u.Roles...)
	return &cp
}

// AddUserRequest is the admin form for creating a staff account.
type AddUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate checks the form for required fields and a known role.
func (r *AddUserRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return ErrMissingCredentials
	}
	if !ParseRole(r.Role).Valid() {
		return ErrInvalidRole
	}
	return nil
}
