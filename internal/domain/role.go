package domain

// Role names. RoleSupport is the gated privileged role; RoleSupportInactive is
// the shadow role held by eligible accounts whose email is not yet verified.
const (
	RoleAdmin           = "admin"
	RoleUser            = "user"
	RoleSupport         = "support"
	RoleSupportInactive = "support-inactive"
)

// ValidRole reports whether name is one of the assignable role names.
func ValidRole(name string) bool {
	switch name {
	case RoleAdmin, RoleUser, RoleSupport, RoleSupportInactive:
		return true
	}
	return false
}

// IsSupportRole reports whether name is the support role, active or inactive.
func IsSupportRole(name string) bool {
	return name == RoleSupport || name == RoleSupportInactive
}
