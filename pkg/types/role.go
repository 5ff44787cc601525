package types

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleMember Role = "member"
)

// DeriveRole maps elevated-privilege flags to a role. It is a pure function:
// callers decide when to apply the result, nothing rewrites roles on save.
func DeriveRole(isSuperuser, isStaff bool) Role {
	switch {
	case isSuperuser:
		return RoleAdmin
	case isStaff:
		return RoleStaff
	default:
		return RoleMember
	}
}

func (r Role) StaffOrAdmin() bool {
	return r == RoleAdmin || r == RoleStaff
}
