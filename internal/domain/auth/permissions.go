package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
	RoleCEO      = "ceo"
)

const (
	PermWorkModeRead    = "workmode.read"
	PermWorkModeControl = "workmode.control"
	PermLeaveRead       = "leave.read"
	PermLeaveWrite      = "leave.write"
	PermLeaveApprove    = "leave.approve"
	PermReportsRead     = "reports.read"
	PermPushSubscribe   = "push.subscribe"
	PermSystemAdmin     = "admin.system"
)

var DefaultPermissions = []string{
	PermWorkModeRead,
	PermWorkModeControl,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermReportsRead,
	PermPushSubscribe,
	PermSystemAdmin,
}

// Work-mode control is a capability, not a role-name comparison: any role that
// carries workmode.control may drive the company-wide mode.
var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermWorkModeRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermPushSubscribe,
	},
	RoleManager: {
		PermWorkModeRead,
		PermWorkModeControl,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermReportsRead,
		PermPushSubscribe,
	},
	RoleAdmin: {
		PermWorkModeRead,
		PermWorkModeControl,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermReportsRead,
		PermPushSubscribe,
		PermSystemAdmin,
	},
	RoleCEO: {
		PermWorkModeRead,
		PermWorkModeControl,
		PermLeaveRead,
		PermLeaveApprove,
		PermReportsRead,
		PermPushSubscribe,
	},
}
