package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Roles are a fixed enumeration; there is no per-company role management.
const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleHRAdmin  = "HR_ADMIN"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// policy is the static permission table for the three fixed roles.
// Managers inherit employee permissions, HR admins inherit manager ones.
var policy = [][]string{
	{RoleEmployee, "leave", "create"},
	{RoleEmployee, "leave", "read"},
	{RoleEmployee, "clock_in", "create"},
	{RoleEmployee, "clock_in", "read"},
	{RoleEmployee, "reimbursement", "create"},
	{RoleEmployee, "reimbursement", "read"},
	{RoleEmployee, "attendance", "create"},
	{RoleEmployee, "attendance", "read"},
	{RoleEmployee, "employee", "read"},

	{RoleManager, "leave", "decide"},
	{RoleManager, "clock_in", "decide"},
	{RoleManager, "reimbursement", "decide"},

	{RoleHRAdmin, "leave", "approve"},
	{RoleHRAdmin, "leave", "cancel"},
	{RoleHRAdmin, "clock_in", "approve"},
	{RoleHRAdmin, "clock_in", "cancel"},
	{RoleHRAdmin, "reimbursement", "cancel"},
	{RoleHRAdmin, "employee", "write"},
	{RoleHRAdmin, "audit", "read"},
}

var roleInheritance = [][]string{
	{RoleManager, RoleEmployee},
	{RoleHRAdmin, RoleManager},
}

type Service interface {
	Enforce(role, resource, action string) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
}

func NewService() (Service, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range policy {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	for _, g := range roleInheritance {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}

	return &service{enforcer: enforcer}, nil
}

func (s *service) Enforce(role, resource, action string) (bool, error) {
	return s.enforcer.Enforce(role, resource, action)
}
