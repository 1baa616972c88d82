package auth

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/firmaria/docsign/internal/models"
)

func genRole() gopter.Gen {
	return gen.OneConstOf(models.RoleAdmin, models.RoleManager, models.RoleAgent)
}

func genTenant() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("co-1", "co-2", "co-3"),
		gen.OneConstOf("", "br-1", "br-2"),
	).Map(func(values []interface{}) models.Tenant {
		return models.Tenant{
			CompanyID: values[0].(string),
			BranchID:  values[1].(string),
		}
	})
}

func TestCanManageTenantProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("admin covers every tenant", prop.ForAll(
		func(own, target models.Tenant) bool {
			return CanManageTenant(models.RoleAdmin, own, target)
		},
		genTenant(), genTenant(),
	))

	properties.Property("nobody below admin crosses company boundaries", prop.ForAll(
		func(role models.Role, own, target models.Tenant) bool {
			if role == models.RoleAdmin || own.CompanyID == target.CompanyID {
				return true
			}
			return !CanManageTenant(role, own, target)
		},
		genRole(), genTenant(), genTenant(),
	))

	properties.Property("manager covers every branch of their company", prop.ForAll(
		func(own, target models.Tenant) bool {
			target.CompanyID = own.CompanyID
			return CanManageTenant(models.RoleManager, own, target)
		},
		genTenant(), genTenant(),
	))

	properties.Property("branch-bound agent is confined to their branch", prop.ForAll(
		func(own, target models.Tenant) bool {
			target.CompanyID = own.CompanyID
			got := CanManageTenant(models.RoleAgent, own, target)
			want := own.BranchID == "" || own.BranchID == target.BranchID
			return got == want
		},
		genTenant(), genTenant(),
	))

	properties.Property("agent access implies manager access", prop.ForAll(
		func(own, target models.Tenant) bool {
			if !CanManageTenant(models.RoleAgent, own, target) {
				return true
			}
			return CanManageTenant(models.RoleManager, own, target)
		},
		genTenant(), genTenant(),
	))

	properties.Property("unknown roles never gain access", prop.ForAll(
		func(own, target models.Tenant) bool {
			return !CanManageTenant(models.Role("superuser"), own, target)
		},
		genTenant(), genTenant(),
	))

	properties.TestingRun(t)
}

func TestRolePermissions(t *testing.T) {
	// Admin holds every permission; the sweep stays admin-only.
	for _, p := range []Permission{
		PermissionCreateEnvelope,
		PermissionCancelEnvelope,
		PermissionViewEnvelopes,
		PermissionSendReminder,
		PermissionRunSweep,
	} {
		assert.NoError(t, CheckRolePermission(models.RoleAdmin, p))
	}

	assert.NoError(t, CheckRolePermission(models.RoleManager, PermissionCancelEnvelope))
	assert.ErrorIs(t, CheckRolePermission(models.RoleManager, PermissionRunSweep), ErrPermissionDenied)

	assert.NoError(t, CheckRolePermission(models.RoleAgent, PermissionCreateEnvelope))
	assert.ErrorIs(t, CheckRolePermission(models.RoleAgent, PermissionCancelEnvelope), ErrPermissionDenied)
	assert.ErrorIs(t, CheckRolePermission(models.Role("superuser"), PermissionViewEnvelopes), ErrPermissionDenied)
}

func TestScopeFor(t *testing.T) {
	manager := &models.User{Role: models.RoleManager, CompanyID: "co-1", BranchID: "br-1"}
	assert.Equal(t, models.Tenant{CompanyID: "co-1"}, ScopeFor(manager),
		"manager scope covers the whole company")

	agent := &models.User{Role: models.RoleAgent, CompanyID: "co-1", BranchID: "br-1"}
	assert.Equal(t, models.Tenant{CompanyID: "co-1", BranchID: "br-1"}, ScopeFor(agent))
}
