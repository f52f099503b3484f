package auth

// Coarse organization-wide roles. Employee, Supervisor and Reviewer are
// derived from the reporting hierarchy and kept in sync by the permission
// recalculator; HR Manager and System Admin are assigned manually and never
// touched by recalculation.
const (
	RoleEmployee    = "Employee"
	RoleSupervisor  = "Supervisor"
	RoleReviewer    = "Reviewer"
	RoleHRManager   = "HR"
	RoleSystemAdmin = "SystemAdmin"
)

const (
	PermEmployeesRead   = "org.employees.read"
	PermEmployeesWrite  = "org.employees.write"
	PermCyclesRead      = "pms.cycles.read"
	PermCyclesWrite     = "pms.cycles.write"
	PermCyclesActivate  = "pms.cycles.activate"
	PermAppraisalsRead  = "pms.appraisals.read"
	PermAppraisalsWrite = "pms.appraisals.write"
	PermAppraisalsAct   = "pms.appraisals.act"
	PermReportsRead     = "pms.reports.read"
	PermSystemAdmin     = "admin.system"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermCyclesRead,
	PermCyclesWrite,
	PermCyclesActivate,
	PermAppraisalsRead,
	PermAppraisalsWrite,
	PermAppraisalsAct,
	PermReportsRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermCyclesRead,
		PermAppraisalsRead,
		PermAppraisalsWrite,
		PermAppraisalsAct,
		PermReportsRead,
	},
	RoleSupervisor: {
		PermEmployeesRead,
		PermCyclesRead,
		PermAppraisalsRead,
		PermAppraisalsWrite,
		PermAppraisalsAct,
		PermReportsRead,
	},
	RoleReviewer: {
		PermEmployeesRead,
		PermCyclesRead,
		PermAppraisalsRead,
		PermAppraisalsAct,
		PermReportsRead,
	},
	RoleHRManager: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermCyclesRead,
		PermCyclesWrite,
		PermCyclesActivate,
		PermAppraisalsRead,
		PermAppraisalsWrite,
		PermAppraisalsAct,
		PermReportsRead,
	},
	RoleSystemAdmin: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermCyclesRead,
		PermCyclesWrite,
		PermCyclesActivate,
		PermAppraisalsRead,
		PermAppraisalsWrite,
		PermAppraisalsAct,
		PermReportsRead,
		PermSystemAdmin,
	},
}
