package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"unit:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"quiz:start",
		"notification:view",
	},
	"teacher": {
		"unit:create",
		"unit:assign",
		"unit:view",
		"question:generate",
		"attempt:view-all",
		"notification:view",
	},
	"admin": {
		"*", // everything
	},
}
