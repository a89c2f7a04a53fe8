package rbac

const (
	RoleStudent    = "student"
	RoleTutor      = "tutor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super admin"
)

// Simple default policy, keyed by normalized role.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"course:view",
		"course:enroll",
		"attempt:create",
		"attempt:submit",
		"attempt:view-own",
		"certificate:view-own",
		"upload:create",
	},
	RoleTutor: {
		"course:view",
		"course:enroll",
		"course:create",
		"course:edit_own",
		"attempt:create",
		"attempt:submit",
		"attempt:view-own",
		"certificate:view-own",
		"upload:create",
	},
	RoleAdmin: {
		"*", // everything
	},
	RoleSuperAdmin: {
		"*",
	},
}
