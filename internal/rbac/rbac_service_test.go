package rbac_test

import (
	"testing"

	"leaveflow/internal/rbac"

	"github.com/stretchr/testify/assert"
)

func TestService_Enforce(t *testing.T) {
	svc, err := rbac.NewService()
	assert.NoError(t, err)

	t.Run("employee can create leave", func(t *testing.T) {
		allowed, err := svc.Enforce(rbac.RoleEmployee, "leave", "create")
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("employee cannot decide leave", func(t *testing.T) {
		allowed, err := svc.Enforce(rbac.RoleEmployee, "leave", "decide")
		assert.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("manager inherits employee permissions", func(t *testing.T) {
		allowed, err := svc.Enforce(rbac.RoleManager, "leave", "create")
		assert.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = svc.Enforce(rbac.RoleManager, "leave", "decide")
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("manager cannot hr-approve", func(t *testing.T) {
		allowed, err := svc.Enforce(rbac.RoleManager, "leave", "approve")
		assert.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("hr admin can approve cancel and adjust", func(t *testing.T) {
		for _, check := range [][2]string{
			{"leave", "approve"},
			{"leave", "cancel"},
			{"employee", "write"},
			{"audit", "read"},
			{"leave", "decide"},
			{"leave", "create"},
		} {
			allowed, err := svc.Enforce(rbac.RoleHRAdmin, check[0], check[1])
			assert.NoError(t, err)
			assert.True(t, allowed, "hr_admin should be allowed %s:%s", check[0], check[1])
		}
	})

	t.Run("unknown role denied", func(t *testing.T) {
		allowed, err := svc.Enforce("INTERN", "leave", "create")
		assert.NoError(t, err)
		assert.False(t, allowed)
	})
}
