package domain

import "fmt"

type Role string

const (
	RolePatient  Role = "patient"
	RoleDonor    Role = "donor"
	RoleHospital Role = "hospital"
	RoleNGO      Role = "ngo"
	RoleAdmin    Role = "admin"
)

// Roles lists every recognized role in a stable order.
var Roles = []Role{RolePatient, RoleDonor, RoleHospital, RoleNGO, RoleAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDonor, RoleHospital, RoleNGO, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole validates a role string received at a trust boundary.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// DashboardPath maps a role to its default landing destination.
// Total over any input; unrecognized roles fall back to the root path.
func (r Role) DashboardPath() string {
	switch r {
	case RolePatient:
		return "/patient"
	case RoleDonor:
		return "/donor"
	case RoleHospital:
		return "/hospital"
	case RoleNGO:
		return "/ngo"
	case RoleAdmin:
		return "/admin"
	default:
		return "/"
	}
}
