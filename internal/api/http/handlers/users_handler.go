package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dochub-service/internal/api/dto"
	"github.com/spec-kit/dochub-service/internal/auth"
	"github.com/spec-kit/dochub-service/internal/repository"
	"github.com/spec-kit/dochub-service/internal/service"
	apperrors "github.com/spec-kit/dochub-service/pkg/util"
)

// UsersHandler exposes user management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Invite handles POST /api/v1/users/invite.
func (h *UsersHandler) Invite(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.InviteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return apperrors.NewValidationError("first_name, last_name and email required", nil)
	}

	_, err := h.users.Invite(c.UserContext(), identity.ID, service.InviteParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		RoleID:       req.RoleID,
		DepartmentID: req.DepartmentID,
		Permissions:  req.Permissions,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.SuccessMessage{Message: "successfully invited new user"})
}

// Register handles POST /api/v1/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.FirstName == "" || req.LastName == "" || req.DepartmentID < 1 || len(req.Password) < 8 {
		return apperrors.NewValidationError("token, profile fields and a password of at least 8 characters required", nil)
	}

	err := h.users.CompleteRegistration(c.UserContext(), service.RegistrationParams{
		Token:        req.Token,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
		Password:     req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.SuccessMessage{Message: "successfully completed registration process"})
}

// List handles GET /api/v1/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 10)
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 1000 {
		perPage = 1000
	}

	filter := repository.UserFilter{
		Page:    page,
		PerPage: perPage,
		Search:  c.Query("name_email_search"),
	}
	if raw := c.Query("is_active"); raw != "" {
		isActive := raw == "true" || raw == "1"
		filter.IsActive = &isActive
	}

	users, total, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	views := make([]dto.UserView, 0, len(users))
	for i := range users {
		views = append(views, dto.NewUserView(&users[i]))
	}
	return c.JSON(dto.PaginatedUsersResponse{
		Data: views,
		Pagination: dto.Pagination{
			CurrentPage: page,
			PerPage:     perPage,
			Length:      len(views),
			Total:       total,
		},
	})
}

// Get handles GET /api/v1/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserView(user)})
}

// Update handles PUT /api/v1/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	err := h.users.Update(c.UserContext(), identity, c.Params("id"), repository.UserUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
		RoleID:       req.RoleID,
		Permissions:  req.Permissions,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.SuccessMessage{Message: "successfully updated the details"})
}

// Departments handles GET /api/v1/users/departments. The listing is public:
// invited users pick a department while completing registration.
func (h *UsersHandler) Departments(c *fiber.Ctx) error {
	departments, err := h.users.Departments(c.UserContext())
	if err != nil {
		return err
	}
	views := make([]dto.DepartmentView, 0, len(departments))
	for _, dept := range departments {
		views = append(views, dto.DepartmentView{ID: dept.ID, Name: dept.Name})
	}
	return c.JSON(fiber.Map{"data": views})
}

// Dashboard handles GET /api/v1/users/dashboard.
func (h *UsersHandler) Dashboard(c *fiber.Ctx) error {
	counts, err := h.users.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardData{
		TotalUsers:        counts.TotalUsers,
		ActiveUsers:       counts.ActiveUsers,
		ActiveAdminUsers:  counts.ActiveAdminUsers,
		UnregisteredUsers: counts.UnregisteredUsers,
	}})
}
