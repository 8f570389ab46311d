package auth

import (
	"github.com/jmfitness/studio-management/internal"
)

type Resource string

const (
	ResourceUsers                   Resource = "users"
	ResourceEmployees               Resource = "employees"
	ResourceHealthMetrics           Resource = "healthMetrics"
	ResourceFinancial               Resource = "financial"
	ResourceFinancialMonthlyPayment Resource = "financialMonthlyPayment"
	ResourceCheckins                Resource = "checkins"
	ResourceTimeRecords             Resource = "timeRecords"
	ResourceExpenses                Resource = "expenses"
	ResourcePayroll                 Resource = "payroll"
)

var Resources = []Resource{
	ResourceUsers, ResourceEmployees, ResourceHealthMetrics, ResourceFinancial,
	ResourceFinancialMonthlyPayment, ResourceCheckins, ResourceTimeRecords,
	ResourceExpenses, ResourcePayroll,
}

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// PermissionContext describes the record an action touches. UserID is always
// the caller.
type PermissionContext struct {
	UserID         string
	TargetUserID   string
	TargetUserType Role
}

// Rule decides a single (role, resource, action) cell.
type Rule func(pc PermissionContext) bool

func allow(PermissionContext) bool { return true }

func self(pc PermissionContext) bool {
	return pc.UserID != "" && pc.TargetUserID == pc.UserID
}

func targetIs(roles ...Role) Rule {
	return func(pc PermissionContext) bool {
		for _, r := range roles {
			if pc.TargetUserType == r {
				return true
			}
		}
		return false
	}
}

func anyOf(rules ...Rule) Rule {
	return func(pc PermissionContext) bool {
		for _, rule := range rules {
			if rule(pc) {
				return true
			}
		}
		return false
	}
}

type actionRules map[Action]Rule

var permissions = map[Role]map[Resource]actionRules{
	RoleAdmin: adminRules(),
	RoleFuncionario: {
		ResourceUsers: {
			ActionCreate: targetIs(RoleAluno),
			ActionRead:   allow,
			ActionUpdate: anyOf(targetIs(RoleAluno), self),
			ActionDelete: targetIs(RoleAluno),
		},
		ResourceHealthMetrics: {
			ActionRead:   allow,
			ActionUpdate: allow,
		},
		ResourceFinancialMonthlyPayment: {
			ActionRead:   targetIs(RoleAluno),
			ActionUpdate: targetIs(RoleAluno),
		},
		ResourceCheckins: {
			ActionCreate: allow,
			ActionRead:   allow,
		},
		ResourceTimeRecords: {
			ActionCreate: self,
			ActionRead:   self,
		},
	},
	RoleProfessor: {
		ResourceUsers: {
			ActionCreate: targetIs(RoleAluno),
			ActionRead:   allow,
			ActionUpdate: self,
		},
		ResourceHealthMetrics: {
			ActionRead:   allow,
			ActionUpdate: allow,
		},
		ResourceCheckins: {
			ActionCreate: allow,
			ActionRead:   allow,
		},
	},
	RoleAluno: {
		ResourceUsers: {
			ActionRead:   self,
			ActionUpdate: self,
		},
		ResourceHealthMetrics: {
			ActionRead:   self,
			ActionUpdate: self,
		},
		ResourceFinancial: {
			ActionRead: self,
		},
		ResourceFinancialMonthlyPayment: {
			ActionRead:   self,
			ActionUpdate: self,
		},
		ResourceCheckins: {
			ActionCreate: self,
			ActionRead:   self,
		},
	},
}

func adminRules() map[Resource]actionRules {
	rules := make(map[Resource]actionRules, len(Resources))
	for _, res := range Resources {
		rules[res] = actionRules{}
		for _, act := range Actions {
			rules[res][act] = allow
		}
	}
	return rules
}

// HasPermission looks the cell up in the permission table. Missing cells deny.
func HasPermission(role Role, resource Resource, action Action, pc PermissionContext) bool {
	byResource, ok := permissions[role]
	if !ok {
		return false
	}
	rule, ok := byResource[resource][action]
	if !ok || rule == nil {
		return false
	}
	return rule(pc)
}

// Grants reports whether role has any rule for the cell, ignoring the target.
// Routes use it as a coarse gate before services run the full check.
func Grants(role Role, resource Resource, action Action) bool {
	rule, ok := permissions[role][resource][action]
	return ok && rule != nil
}

// Authorize checks the caller against the table, filling pc.UserID from id.
func Authorize(id *Identity, resource Resource, action Action, pc PermissionContext) error {
	if id == nil || id.ID == "" {
		return internal.ErrNotAuthenticated
	}
	pc.UserID = id.ID
	if !HasPermission(id.Role, resource, action, pc) {
		return internal.ErrPermissionDenied
	}
	return nil
}

func CanCreateUserType(id *Identity, target Role) error {
	return Authorize(id, ResourceUsers, ActionCreate, PermissionContext{TargetUserType: target})
}

func CanUpdateUserType(id *Identity, target Role, targetUserID string) error {
	return Authorize(id, ResourceUsers, ActionUpdate, PermissionContext{
		TargetUserType: target,
		TargetUserID:   targetUserID,
	})
}

func CanAccessHealthMetrics(id *Identity, action Action, targetUserID string) error {
	return Authorize(id, ResourceHealthMetrics, action, PermissionContext{TargetUserID: targetUserID})
}

func CanAccessFinancial(id *Identity, action Action, targetUserID string) error {
	return Authorize(id, ResourceFinancial, action, PermissionContext{TargetUserID: targetUserID})
}

// CanAccessMonthlyPayment covers the paid flag only, which staff may touch
// without seeing the rest of a student's financial record.
func CanAccessMonthlyPayment(id *Identity, action Action, targetUserID string) error {
	return Authorize(id, ResourceFinancialMonthlyPayment, action, PermissionContext{
		TargetUserType: RoleAluno,
		TargetUserID:   targetUserID,
	})
}

// PermissionResult is the outcome of CheckPermission.
type PermissionResult struct {
	Allowed bool      `json:"allowed"`
	User    *Identity `json:"user"`
	Error   string    `json:"error,omitempty"`
}
