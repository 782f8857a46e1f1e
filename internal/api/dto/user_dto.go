package dto

import (
	"time"

	"github.com/spec-kit/dochub-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginProfile is the profile snapshot returned alongside a login token.
type LoginProfile struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	DepartmentID   *int     `json:"department_id"`
	DepartmentName string   `json:"department_name"`
	RoleID         int      `json:"role_id"`
	Permissions    []string `json:"permissions"`
}

// LoginResponse payload for a successful login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Data        LoginProfile `json:"data"`
}

// ForgotPasswordRequest payload for requesting a reset token.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload for consuming a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// InviteUserRequest payload for admin account creation.
type InviteUserRequest struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	RoleID       int      `json:"role_id"`
	DepartmentID *int     `json:"department_id"`
	Permissions  []string `json:"permissions"`
}

// RegisterRequest payload for completing an invitation.
type RegisterRequest struct {
	Token        string `json:"token"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DepartmentID int    `json:"department_id"`
	Password     string `json:"password"`
}

// UpdateUserRequest payload for user edits; absent fields are unchanged.
type UpdateUserRequest struct {
	FirstName    *string  `json:"first_name"`
	LastName     *string  `json:"last_name"`
	DepartmentID *int     `json:"department_id"`
	RoleID       *int     `json:"role_id"`
	Permissions  []string `json:"permissions"`
	IsActive     *bool    `json:"is_active"`
}

// UserView is the external representation of an account.
type UserView struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	RoleID       int        `json:"role_id"`
	DepartmentID *int       `json:"department_id"`
	Permissions  []string   `json:"permissions"`
	IsActive     bool       `json:"is_active"`
	InvitedAt    *time.Time `json:"invited_at"`
	RegisteredAt *time.Time `json:"registered_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUserView maps a domain user onto its external shape.
func NewUserView(user *domain.User) UserView {
	permissions := user.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return UserView{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		RoleID:       user.RoleID,
		DepartmentID: user.DepartmentID,
		Permissions:  permissions,
		IsActive:     user.IsActive,
		InvitedAt:    user.InvitedAt,
		RegisteredAt: user.RegisteredAt,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// Pagination describes a page of results. Total is populated on page one
// only.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Length      int   `json:"length"`
	Total       int64 `json:"total"`
}

// PaginatedUsersResponse wraps a user listing.
type PaginatedUsersResponse struct {
	Data       []UserView `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// DashboardData carries the admin user-page counts.
type DashboardData struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveUsers       int64 `json:"active_users"`
	ActiveAdminUsers  int64 `json:"active_admin_users"`
	UnregisteredUsers int64 `json:"unregistered_users"`
}

// DepartmentView is the external representation of a department.
type DepartmentView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SuccessMessage is the generic acknowledgment body.
type SuccessMessage struct {
	Message string `json:"message"`
}
