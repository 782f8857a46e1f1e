package domain

import "time"

// RoleAdmin is the elevated role that bypasses ownership checks.
const RoleAdmin = 1

// RoleMember is the default role assigned to invited users.
const RoleMember = 2

// User is the domain model for application accounts.
//
// A user with RegisteredAt unset is pending invitation: the row exists, an
// invitation token may be live, but the account has no usable password and
// must not authenticate via login.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash *string
	RoleID       int
	DepartmentID *int
	Permissions  []string
	IsActive     bool
	IsDeleted    bool
	InvitedBy    *string
	InvitedAt    *time.Time
	RegisteredAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Registered reports whether the invitation lifecycle completed.
func (u *User) Registered() bool {
	return u.RegisteredAt != nil
}

// CanLogin reports whether password authentication is allowed at all.
func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsDeleted && u.Registered() && u.PasswordHash != nil
}

// UserCounts aggregates dashboard numbers over non-deleted users.
type UserCounts struct {
	TotalUsers        int64
	ActiveUsers       int64
	ActiveAdminUsers  int64
	UnregisteredUsers int64
}
