package auth

import (
	"context"
	"time"

	"github.com/spec-kit/dochub-service/internal/domain"
)

// TokenTTLs configures the expiry window per purpose. The revocation entry
// is written with the same TTL as the token itself so both lapse together.
type TokenTTLs struct {
	Login          time.Duration
	ForgotPassword time.Duration
	Invitation     time.Duration
}

// Issuer mints purpose-tagged tokens and records each as the live token for
// its (subject, purpose) pair. Re-issuing replaces the previous entry, so at
// most one token per pair authenticates at any time. Two concurrent issues
// for the same pair race last-write-wins; the loser's token is dead on
// arrival even though it was returned successfully.
type Issuer struct {
	codec *TokenCodec
	store RevocationStore
	ttls  TokenTTLs
}

// NewIssuer builds an issuer over the codec and revocation store.
func NewIssuer(codec *TokenCodec, store RevocationStore, ttls TokenTTLs) *Issuer {
	return &Issuer{codec: codec, store: store, ttls: ttls}
}

// IssueLogin snapshots the user's profile into a login token. Role and
// permission claims reflect the row at login time; they change only when the
// login entry is revoked and a fresh token issued.
func (i *Issuer) IssueLogin(ctx context.Context, user *domain.User) (string, time.Time, error) {
	permissions := user.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	claims := &LoginClaims{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		DepartmentID: user.DepartmentID,
		RoleID:       user.RoleID,
		Permissions:  permissions,
	}
	return i.issue(ctx, claims, i.ttls.Login)
}

// IssueForgotPassword mints a one-shot password reset token.
func (i *Issuer) IssueForgotPassword(ctx context.Context, subjectID, email string) (string, time.Time, error) {
	return i.issue(ctx, &ForgotPasswordClaims{ID: subjectID, Email: email}, i.ttls.ForgotPassword)
}

// IssueInvitation mints the registration token sent with an invitation.
func (i *Issuer) IssueInvitation(ctx context.Context, subjectID, email string) (string, time.Time, error) {
	return i.issue(ctx, &InvitationClaims{ID: subjectID, Email: email}, i.ttls.Invitation)
}

func (i *Issuer) issue(ctx context.Context, claims Claims, ttl time.Duration) (string, time.Time, error) {
	token, expiresAt, err := i.codec.Encode(claims, ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := i.store.Put(ctx, claims.SubjectID(), claims.Purpose(), token, ttl); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}
