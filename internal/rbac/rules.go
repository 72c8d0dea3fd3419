package rbac

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view",
		"submission:create",
		"submission:view-own",
		"user:change_password",
	},
	"teacher": {
		"exam:create",
		"exam:view",
		"exam:list",
		"exam:status",
		"exam:results",
		"submission:view-all",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
