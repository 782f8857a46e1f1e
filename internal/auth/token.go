package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/dochub-service/internal/domain"
)

// Claims is the payload carried by a decoded token. Each purpose has its own
// variant; decoding returns the variant matching the token's purpose claim
// and rejects payloads shaped for a different purpose.
type Claims interface {
	SubjectID() string
	Purpose() domain.Purpose
}

// LoginClaims is the profile snapshot embedded in login tokens so that
// authorization checks need no database read.
type LoginClaims struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	DepartmentID *int
	RoleID       int
	Permissions  []string
}

func (c *LoginClaims) SubjectID() string { return c.ID }
func (c *LoginClaims) Purpose() domain.Purpose { return domain.PurposeLogin }

// ForgotPasswordClaims carries the minimal identity for the one-shot
// password reset flow.
type ForgotPasswordClaims struct {
	ID    string
	Email string
}

func (c *ForgotPasswordClaims) SubjectID() string { return c.ID }
func (c *ForgotPasswordClaims) Purpose() domain.Purpose { return domain.PurposeForgotPassword }

// InvitationClaims carries the minimal identity for registration-by-invitation.
type InvitationClaims struct {
	ID    string
	Email string
}

func (c *InvitationClaims) SubjectID() string { return c.ID }
func (c *InvitationClaims) Purpose() domain.Purpose { return domain.PurposeInvitation }

// tokenPayload is the wire shape of every token. The purpose rides in the
// registered subject claim; profile fields are present only on login tokens.
type tokenPayload struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	FirstName    *string  `json:"first_name,omitempty"`
	LastName     *string  `json:"last_name,omitempty"`
	DepartmentID *int     `json:"department_id,omitempty"`
	RoleID       *int     `json:"role_id,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies purpose-tagged tokens with a process-wide
// HS256 secret. It has no side effects; revocation lives elsewhere.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec builds a codec around the shared signing secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Encode signs the claims variant with expiry now+ttl.
func (tc *TokenCodec) Encode(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	payload := tokenPayload{
		ID:        claims.SubjectID(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(claims.Purpose()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	switch c := claims.(type) {
	case *LoginClaims:
		roleID := c.RoleID
		payload.Email = c.Email
		payload.FirstName = &c.FirstName
		payload.LastName = &c.LastName
		payload.DepartmentID = c.DepartmentID
		payload.RoleID = &roleID
		payload.Permissions = c.Permissions
	case *ForgotPasswordClaims:
		payload.Email = c.Email
	case *InvitationClaims:
		payload.Email = c.Email
	default:
		return "", time.Time{}, fmt.Errorf("unsupported claims type %T", claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode verifies signature and expiry, then maps the payload onto the
// variant matching its purpose claim. A payload whose shape does not fit its
// declared purpose fails as malformed.
func (tc *TokenCodec) Decode(tokenStr string) (Claims, error) {
	var payload tokenPayload
	parsed, err := jwt.ParseWithClaims(tokenStr, &payload, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return tc.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	switch domain.Purpose(payload.Subject) {
	case domain.PurposeLogin:
		if payload.RoleID == nil || payload.FirstName == nil || payload.LastName == nil {
			return nil, fmt.Errorf("%w: login token missing profile claims", ErrTokenMalformed)
		}
		permissions := payload.Permissions
		if permissions == nil {
			permissions = []string{}
		}
		return &LoginClaims{
			ID:           payload.ID,
			Email:        payload.Email,
			FirstName:    *payload.FirstName,
			LastName:     *payload.LastName,
			DepartmentID: payload.DepartmentID,
			RoleID:       *payload.RoleID,
			Permissions:  permissions,
		}, nil
	case domain.PurposeForgotPassword:
		if err := requireMinimalShape(&payload); err != nil {
			return nil, err
		}
		return &ForgotPasswordClaims{ID: payload.ID, Email: payload.Email}, nil
	case domain.PurposeInvitation:
		if err := requireMinimalShape(&payload); err != nil {
			return nil, err
		}
		return &InvitationClaims{ID: payload.ID, Email: payload.Email}, nil
	default:
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrTokenMalformed, payload.Subject)
	}
}

// requireMinimalShape rejects forgot_pwd/invitation tokens smuggling
// login-only claims.
func requireMinimalShape(payload *tokenPayload) error {
	if payload.RoleID != nil || payload.FirstName != nil || payload.LastName != nil ||
		payload.DepartmentID != nil || len(payload.Permissions) > 0 {
		return fmt.Errorf("%w: unexpected profile claims for purpose %q", ErrTokenMalformed, payload.Subject)
	}
	if payload.ID == "" {
		return fmt.Errorf("%w: missing subject id", ErrTokenMalformed)
	}
	return nil
}
