package domain

// OperatorRole scopes what an ops-API token may do.
type OperatorRole string

const (
	RoleAdmin OperatorRole = "ADMIN"
	RoleStaff OperatorRole = "STAFF"
)

// ValidOperatorRole reports whether r is a known role.
func ValidOperatorRole(r OperatorRole) bool {
	return r == RoleAdmin || r == RoleStaff
}
