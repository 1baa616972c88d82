package models

import (
	"time"
)

// Role represents a staff user's role. The legacy system encoded these as
// numeric type tags; they are modeled here as a closed named set.
type Role string

const (
	// RoleAdmin can operate across all tenants, including running the sweeper.
	RoleAdmin Role = "admin"
	// RoleManager can operate on any branch of their own company.
	RoleManager Role = "manager"
	// RoleAgent can operate only within their own branch.
	RoleAgent Role = "agent"
)

// User represents a staff user. Staff accounts are managed by an external
// surface; this service only authenticates them and derives a tenant scope.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CompanyID    string    `json:"company_id"`
	BranchID     string    `json:"branch_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Tenant returns the user's home tenant scope.
func (u *User) Tenant() Tenant {
	return Tenant{CompanyID: u.CompanyID, BranchID: u.BranchID}
}
