package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserInvited            EventType = "user_invited"
	EventUserRegistered         EventType = "user_registered"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
	EventSessionsRevoked        EventType = "sessions_revoked"
)

// Event represents a user-lifecycle event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserInvitedPayload carries what the invitation email needs.
type UserInvitedPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Token     string `json:"-"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
}

// PasswordResetRequestedPayload carries what the reset email needs.
type PasswordResetRequestedPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Token     string `json:"-"`
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	Email string `json:"email"`
}

// SessionsRevokedPayload payload.
type SessionsRevokedPayload struct {
	Reason string `json:"reason"`
}
