package domain

import "time"

// UserRole enumerates administrative roles.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleSupervisor UserRole = "supervisor"
	UserRoleOperator   UserRole = "operator"
)

// User is an administrative account. Users are provisioned out of band.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         UserRole
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
