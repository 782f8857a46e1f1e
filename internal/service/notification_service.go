package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/dochub-service/internal/config"
	"github.com/spec-kit/dochub-service/internal/email"
	"github.com/spec-kit/dochub-service/internal/events"
)

// NotificationService turns user-lifecycle events into outbound email.
// Delivery is best effort: a failed send is logged and never fails the flow
// that emitted the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     email.Mailer
	frontend   config.FrontendConfig
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer email.Mailer, frontend config.FrontendConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		frontend:   frontend,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the events that trigger email.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserInvited, n.handleUserInvited)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
}

func (n *NotificationService) handleUserInvited(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserInvitedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for user_invited event")
		return nil
	}

	registrationURL := fmt.Sprintf("%s/%s?first_name=%s&last_name=%s",
		n.frontend.RegistrationURL, payload.Token, payload.FirstName, payload.LastName)
	body, err := email.RenderInvitation(payload.FirstName, registrationURL)
	if err != nil {
		n.logger.Error("render invitation email", zap.Error(err))
		return nil
	}

	if err := n.mailer.Send(ctx, []string{payload.Email}, "DocHub Application Invitation", body); err != nil {
		n.logger.Error("send invitation email", zap.String("user_id", event.SubjectID), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for password_reset_requested event")
		return nil
	}

	resetURL := fmt.Sprintf("%s/%s", n.frontend.PasswordResetURL, payload.Token)
	body, err := email.RenderPasswordReset(payload.FirstName, resetURL)
	if err != nil {
		n.logger.Error("render reset email", zap.Error(err))
		return nil
	}

	if err := n.mailer.Send(ctx, []string{payload.Email}, "Reset Password: DocHub Application", body); err != nil {
		n.logger.Error("send reset email", zap.String("user_id", event.SubjectID), zap.Error(err))
	}
	return nil
}
