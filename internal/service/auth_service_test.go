package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dochub-service/internal/domain"
	"github.com/spec-kit/dochub-service/internal/events"
	apperrors "github.com/spec-kit/dochub-service/pkg/util"
)

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	result, err := env.authService.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Engineering", result.DepartmentName)
	assert.False(t, result.ExpiresAt.IsZero())

	claims, err := env.authenticator.Authenticate(ctx, result.Token, domain.PurposeLogin)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.SubjectID())
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	_, err := env.authService.Login(context.Background(), "jane@example.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	// Unknown accounts fail with the same message as a wrong password.
	_, err := env.authService.Login(context.Background(), "nobody@example.com", "password123")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestLoginPendingInvitationRejected(t *testing.T) {
	env := newTestEnv(t)
	actor := env.seedRegisteredUser(t, "admin@example.com", "password123", domain.RoleAdmin)

	_, err := env.userService.Invite(context.Background(), actor.ID, InviteParams{
		FirstName: "New", LastName: "Hire", Email: "hire@example.com",
	})
	require.NoError(t, err)

	_, err = env.authService.Login(context.Background(), "hire@example.com", "anything")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestLoginDeactivatedRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)
	env.repo.users[user.ID].IsActive = false

	_, err := env.authService.Login(context.Background(), "jane@example.com", "password123")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestSecondLoginInvalidatesFirstToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	first, err := env.authService.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	second, err := env.authService.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	_, err = env.authenticator.Authenticate(ctx, first.Token, domain.PurposeLogin)
	assert.Error(t, err)
	_, err = env.authenticator.Authenticate(ctx, second.Token, domain.PurposeLogin)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	result, err := env.authService.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, env.authService.Logout(ctx, result.User.ID))

	_, err = env.authenticator.Authenticate(ctx, result.Token, domain.PurposeLogin)
	assert.Error(t, err)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t)

	err := env.authService.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, env.dispatcher.byType(events.EventPasswordResetRequested))
}

func TestForgotPasswordPendingAccountIsSilent(t *testing.T) {
	env := newTestEnv(t)
	actor := env.seedRegisteredUser(t, "admin@example.com", "password123", domain.RoleAdmin)
	_, err := env.userService.Invite(context.Background(), actor.ID, InviteParams{
		FirstName: "New", LastName: "Hire", Email: "hire@example.com",
	})
	require.NoError(t, err)

	err = env.authService.ForgotPassword(context.Background(), "hire@example.com")
	require.NoError(t, err)
	assert.Empty(t, env.dispatcher.byType(events.EventPasswordResetRequested))
}

func TestForgotPasswordRevokesAllSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	login, err := env.authService.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, env.authService.ForgotPassword(ctx, "jane@example.com"))

	_, err = env.authenticator.Authenticate(ctx, login.Token, domain.PurposeLogin)
	assert.Error(t, err, "live sessions must die when a reset is requested")

	event := env.dispatcher.lastOf(t, events.EventPasswordResetRequested)
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	require.True(t, ok)
	assert.NotEmpty(t, payload.Token)

	_, err = env.authenticator.Authenticate(ctx, payload.Token, domain.PurposeForgotPassword)
	assert.NoError(t, err)
}

func TestResetPasswordEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "oldpassword", domain.RoleMember)

	require.NoError(t, env.authService.ForgotPassword(ctx, "jane@example.com"))
	event := env.dispatcher.lastOf(t, events.EventPasswordResetRequested)
	token := event.Payload.(events.PasswordResetRequestedPayload).Token

	require.NoError(t, env.authService.ResetPassword(ctx, token, "newpassword"))

	_, err := env.authService.Login(ctx, "jane@example.com", "oldpassword")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
	_, err = env.authService.Login(ctx, "jane@example.com", "newpassword")
	assert.NoError(t, err)
}

func TestResetPasswordTokenIsOneShot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "oldpassword", domain.RoleMember)

	require.NoError(t, env.authService.ForgotPassword(ctx, "jane@example.com"))
	token := env.dispatcher.lastOf(t, events.EventPasswordResetRequested).
		Payload.(events.PasswordResetRequestedPayload).Token

	require.NoError(t, env.authService.ResetPassword(ctx, token, "newpassword"))

	err := env.authService.ResetPassword(ctx, token, "anotherpassword")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	// The replay must not have changed anything.
	_, err = env.authService.Login(ctx, "jane@example.com", "newpassword")
	assert.NoError(t, err)
}

func TestResetPasswordConsumedEvenWhenUpdateFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedRegisteredUser(t, "jane@example.com", "oldpassword", domain.RoleMember)

	require.NoError(t, env.authService.ForgotPassword(ctx, "jane@example.com"))
	token := env.dispatcher.lastOf(t, events.EventPasswordResetRequested).
		Payload.(events.PasswordResetRequestedPayload).Token

	// Deactivating the account between request and reset makes the password
	// update find no row.
	env.repo.users[user.ID].IsActive = false

	err := env.authService.ResetPassword(ctx, token, "newpassword")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))

	// The entry was revoked before the update ran, so the token stays dead.
	err = env.authService.ResetPassword(ctx, token, "newpassword")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestResetPasswordRejectsLoginToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	login, err := env.authService.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	err = env.authService.ResetPassword(ctx, login.Token, "newpassword")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestResetPasswordStoreDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	require.NoError(t, env.authService.ForgotPassword(ctx, "jane@example.com"))
	token := env.dispatcher.lastOf(t, events.EventPasswordResetRequested).
		Payload.(events.PasswordResetRequestedPayload).Token

	env.mr.Close()

	// Store failures surface as a server error, not a credential rejection.
	err := env.authService.ResetPassword(ctx, token, "newpassword")
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, err))
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedRegisteredUser(t, "jane@example.com", "password123", domain.RoleMember)

	got, err := env.authService.CurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = env.authService.CurrentUser(ctx, "missing-id")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}
