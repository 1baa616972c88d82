// Package auth provides staff authentication and tenant-scope authorization.
package auth

import (
	"errors"

	"github.com/firmaria/docsign/internal/models"
)

// Authorization errors.
var (
	// ErrPermissionDenied is returned when a role lacks a capability.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidRole is returned for roles outside the closed set.
	ErrInvalidRole = errors.New("invalid role")
)

// Permission represents an action a staff user can perform.
type Permission string

const (
	// PermissionCreateEnvelope allows sending documents for signing.
	PermissionCreateEnvelope Permission = "create_envelope"
	// PermissionCancelEnvelope allows cancelling pending envelopes.
	PermissionCancelEnvelope Permission = "cancel_envelope"
	// PermissionViewEnvelopes allows listing and inspecting envelopes.
	PermissionViewEnvelopes Permission = "view_envelopes"
	// PermissionSendReminder allows requesting signer reminders.
	PermissionSendReminder Permission = "send_reminder"
	// PermissionRunSweep allows triggering the expiration sweeper.
	PermissionRunSweep Permission = "run_sweep"
)

// rolePermissions defines which permissions each role has.
var rolePermissions = map[models.Role][]Permission{
	models.RoleAdmin: {
		PermissionCreateEnvelope,
		PermissionCancelEnvelope,
		PermissionViewEnvelopes,
		PermissionSendReminder,
		PermissionRunSweep,
	},
	models.RoleManager: {
		PermissionCreateEnvelope,
		PermissionCancelEnvelope,
		PermissionViewEnvelopes,
		PermissionSendReminder,
	},
	models.RoleAgent: {
		PermissionCreateEnvelope,
		PermissionViewEnvelopes,
		PermissionSendReminder,
	},
}

// ValidRole reports whether the role belongs to the closed set.
func ValidRole(role models.Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// CheckRolePermission checks if a role has a specific permission.
func CheckRolePermission(role models.Role, permission Permission) error {
	permissions, ok := rolePermissions[role]
	if !ok {
		return ErrPermissionDenied
	}
	for _, p := range permissions {
		if p == permission {
			return nil
		}
	}
	return ErrPermissionDenied
}

// CanManageTenant reports whether a user scoped to own may act on target.
// Admins cover every tenant; managers cover every branch of their company;
// agents bound to a branch cover only that branch.
func CanManageTenant(role models.Role, own, target models.Tenant) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return own.CompanyID == target.CompanyID
	case models.RoleAgent:
		if own.CompanyID != target.CompanyID {
			return false
		}
		return own.BranchID == "" || own.BranchID == target.BranchID
	}
	return false
}

// ScopeFor returns the tenant filter a user's listings are restricted to.
// Admin listings are scoped to their own company unless they pass an explicit
// tenant; managers see their whole company; agents only their branch.
func ScopeFor(user *models.User) models.Tenant {
	scope := models.Tenant{CompanyID: user.CompanyID}
	if user.Role == models.RoleAgent {
		scope.BranchID = user.BranchID
	}
	return scope
}
