package service

import (
	"context"
	"errors"
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

const badCredentialsMessage = "incorrect username or password"

// LoginResult bundles what the login endpoint returns.
type LoginResult struct {
	User           *domain.User
	DepartmentName string
	Token          string
	ExpiresAt      time.Time
}

// AuthService coordinates login, logout and the password reset flows.
type AuthService struct {
	users         repository.UserRepository
	departments   repository.DepartmentRepository
	issuer        *auth.Issuer
	authenticator *auth.Authenticator
	sessions      auth.RevocationStore
	dispatcher    events.Dispatcher
	bcryptCost    int
	logger        *zap.Logger
}

// AuthDependencies bundles constructor requirements.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Issuer         *auth.Issuer
	Authenticator  *auth.Authenticator
	Sessions       auth.RevocationStore
	Dispatcher     events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
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

// Login authenticates an email/password pair and issues a fresh login token.
// Issuing replaces any previous login entry, so a second login invalidates
// the token from the first.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized(badCredentialsMessage)
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, apperrors.NewUnauthorized(badCredentialsMessage)
	}
	if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(badCredentialsMessage)
	}

	token, expiresAt, err := s.issuer.IssueLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	departmentName := ""
	if user.DepartmentID != nil {
		if dept, err := s.departments.GetByID(ctx, *user.DepartmentID); err == nil {
			departmentName = dept.Name
		}
	}

	return &LoginResult{User: user, DepartmentName: departmentName, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes the subject's login entry; the presented token dies even
// though its own expiry has not passed.
func (s *AuthService) Logout(ctx context.Context, subjectID string) error {
	return s.sessions.Revoke(ctx, subjectID, domain.PurposeLogin)
}

// CurrentUser loads the fresh user row for an authenticated identity.
func (s *AuthService) CurrentUser(ctx context.Context, subjectID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword starts the one-shot reset flow. It never reveals whether
// the email exists: ineligible requests are logged and silently dropped so
// every caller gets the same acknowledgment.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive || user.IsDeleted || !user.Registered() {
		s.logger.Info("password reset requested for ineligible account", zap.String("user_id", user.ID))
		return nil
	}

	// Every live session dies before the reset token is minted, forcing
	// re-authentication on all devices once the password changes.
	if err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	token, _, err := s.issuer.IssueForgotPassword(ctx, user.ID, user.Email)
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPasswordResetRequested,
		SubjectID: user.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.PasswordResetRequestedPayload{
			Email:     user.Email,
			FirstName: user.FirstName,
			Token:     token,
		},
	})
	return nil
}

// ResetPassword consumes a forgot_pwd token and sets a new password. The
// token entry is revoked immediately after it authenticates, so a replay
// fails even when the password update itself errors out.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.authenticator.Authenticate(ctx, token, domain.PurposeForgotPassword)
	if err != nil {
		return s.mapAuthError(err)
	}
	resetClaims, ok := claims.(*auth.ForgotPasswordClaims)
	if !ok {
		return apperrors.NewUnauthorized(genericTokenFailure)
	}

	if err := s.sessions.Revoke(ctx, resetClaims.ID, domain.PurposeForgotPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordByEmail(ctx, resetClaims.Email, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPasswordChanged,
		SubjectID: resetClaims.ID,
		Timestamp: time.Now().UTC(),
		Payload:   events.PasswordChangedPayload{Email: resetClaims.Email},
	})
	return nil
}

const genericTokenFailure = "could not validate credentials"

// mapAuthError collapses credential failures into one generic response while
// keeping the precise cause in the logs.
func (s *AuthService) mapAuthError(err error) error {
	if errors.Is(err, auth.ErrStoreUnavailable) {
		s.logger.Error("revocation store unreachable", zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("token rejected", zap.Error(err))
	return apperrors.NewUnauthorized(genericTokenFailure)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
