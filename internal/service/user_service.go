package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dochub-service/internal/auth"
	"github.com/spec-kit/dochub-service/internal/config"
	"github.com/spec-kit/dochub-service/internal/domain"
	"github.com/spec-kit/dochub-service/internal/events"
	"github.com/spec-kit/dochub-service/internal/repository"
	apperrors "github.com/spec-kit/dochub-service/pkg/util"
)

// InviteParams describes the account an administrator creates.
type InviteParams struct {
	FirstName    string
	LastName     string
	Email        string
	RoleID       int
	DepartmentID *int
	Permissions  []string
}

// RegistrationParams completes an invited account.
type RegistrationParams struct {
	Token        string
	FirstName    string
	LastName     string
	DepartmentID int
	Password     string
}

// UserService coordinates the invitation/registration lifecycle and user CRUD.
type UserService struct {
	users         repository.UserRepository
	departments   repository.DepartmentRepository
	issuer        *auth.Issuer
	authenticator *auth.Authenticator
	sessions      auth.RevocationStore
	dispatcher    events.Dispatcher
	bcryptCost    int
	logger        *zap.Logger
}

// UserDependencies bundles constructor requirements.
type UserDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Issuer         *auth.Issuer
	Authenticator  *auth.Authenticator
	Sessions       auth.RevocationStore
	Dispatcher     events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, deps UserDependencies, logger *zap.Logger) *UserService {
	return &UserService{
		users:         deps.UserRepo,
		departments:   deps.DepartmentRepo,
		issuer:        deps.Issuer,
		authenticator: deps.Authenticator,
		sessions:      deps.Sessions,
		dispatcher:    deps.Dispatcher,
		bcryptCost:    cfg.Auth.BcryptCost,
		logger:        logger,
	}
}

// Invite creates an account in the invited state and issues its one-time
// invitation token. The account has no password and cannot log in until the
// registration transition completes.
func (s *UserService) Invite(ctx context.Context, actorID string, params InviteParams) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("user with this email already exists", nil)
	}

	roleID := params.RoleID
	if roleID == 0 {
		roleID = domain.RoleMember
	}
	permissions := params.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	user := &domain.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        email,
		RoleID:       roleID,
		DepartmentID: params.DepartmentID,
		Permissions:  permissions,
		InvitedBy:    &actorID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, _, err := s.issuer.IssueInvitation(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserInvited,
		SubjectID: user.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.UserInvitedPayload{
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Token:     token,
		},
	})
	return user, nil
}

// CompleteRegistration consumes an invitation token and transitions the
// account to registered, setting profile fields and the password hash in one
// update. The transition happens at most once: the repository guard rejects
// a second attempt, and the invitation entry is revoked on success so the
// token cannot be replayed within its TTL.
func (s *UserService) CompleteRegistration(ctx context.Context, params RegistrationParams) error {
	claims, err := s.authenticator.Authenticate(ctx, params.Token, domain.PurposeInvitation)
	if err != nil {
		return s.mapAuthError(err)
	}
	invitation, ok := claims.(*auth.InvitationClaims)
	if !ok {
		return apperrors.NewUnauthorized(genericTokenFailure)
	}

	hash, err := auth.HashPassword(params.Password, s.bcryptCost)
	if err != nil {
		return err
	}

	err = s.users.Register(ctx, invitation.ID, repository.Registration{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		DepartmentID: params.DepartmentID,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewConflict("registration already completed", nil)
		}
		return err
	}

	if err := s.sessions.Revoke(ctx, invitation.ID, domain.PurposeInvitation); err != nil {
		// The SQL guard already blocks a replayed registration; losing the
		// revocation only leaves a dead entry to age out via TTL.
		s.logger.Warn("failed to revoke consumed invitation", zap.String("user_id", invitation.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserRegistered,
		SubjectID: invitation.ID,
		Timestamp: time.Now().UTC(),
		Payload:   events.UserRegisteredPayload{Email: invitation.Email},
	})
	return nil
}

// List returns a page of users with the page-one total.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(users) == 0 {
		return nil, 0, apperrors.NewNotFound("users", nil)
	}
	return users, total, nil
}

// Get returns a single user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// Update edits a user. Non-admins may only touch their own profile fields;
// privileged-field changes revoke the target's login entry so stale role or
// permission claims cannot outlive the change.
func (s *UserService) Update(ctx context.Context, actor *auth.LoginClaims, targetID string, fields repository.UserUpdate) error {
	if fields.Empty() {
		return apperrors.NewValidationError("no fields to update", nil)
	}
	if !auth.IsAdmin(actor) && fields.TouchesPrivileges() {
		return apperrors.NewForbidden("not authorized to perform this action")
	}

	if fields.TouchesPrivileges() {
		if err := s.sessions.Revoke(ctx, targetID, domain.PurposeLogin); err != nil {
			return err
		}
	}

	if err := s.users.Update(ctx, targetID, fields); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

// Departments lists active departments for the registration form.
func (s *UserService) Departments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.ListActive(ctx)
}

// Dashboard returns account counts for the admin user page.
func (s *UserService) Dashboard(ctx context.Context) (*domain.UserCounts, error) {
	return s.users.Counts(ctx)
}

func (s *UserService) mapAuthError(err error) error {
	if errors.Is(err, auth.ErrStoreUnavailable) {
		s.logger.Error("revocation store unreachable", zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("token rejected", zap.Error(err))
	return apperrors.NewUnauthorized(genericTokenFailure)
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
