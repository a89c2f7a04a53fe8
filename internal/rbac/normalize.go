package rbac

import "strings"

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

var roleAliases = map[string]string{
	"student":    RoleStudent,
	"learner":    RoleStudent,
	"tutor":      RoleTutor,
	"teacher":    RoleTutor,
	"instructor": RoleTutor,
	"admin":      RoleAdmin,
	"superadmin": RoleSuperAdmin,
}

// NormalizeRole folds case, whitespace, underscores and dashes so that
// "Admin", " admin " and "ADMIN" compare equal, as do "super_admin",
// "superadmin" and "super admin". Unknown roles come back folded but
// otherwise unchanged and match no permission set.
func NormalizeRole(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	key := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if role, ok := roleAliases[key]; ok {
		return role
	}
	return strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(s)), " ")
}

func NormalizeStatus(raw string) string {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case StatusActive, StatusSuspended, StatusPending:
		return s
	default:
		return StatusPending
	}
}

// IsAdmin reports whether a raw role string grants admin scope.
func IsAdmin(raw string) bool {
	switch NormalizeRole(raw) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// KnownRole reports whether raw normalizes to one of the built-in roles.
func KnownRole(raw string) bool {
	_, ok := RolePermissions[NormalizeRole(raw)]
	return ok
}
