package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/dochub-service/internal/domain"
	apperrors "github.com/spec-kit/dochub-service/pkg/util"
)

const identityKey = "auth_identity"

// genericAuthFailure is the only credential message clients ever see;
// expired, revoked and forged tokens are indistinguishable on the wire.
const genericAuthFailure = "could not validate credentials"

// Middleware resolves bearer tokens into login identities for protected
// routes.
type Middleware struct {
	authenticator *Authenticator
	logger        *zap.Logger
}

// NewMiddleware constructs the middleware.
func NewMiddleware(authenticator *Authenticator, logger *zap.Logger) *Middleware {
	return &Middleware{authenticator: authenticator, logger: logger}
}

// Handle enforces login-token authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.authenticator.Authenticate(c.UserContext(), token, domain.PurposeLogin)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			m.logger.Error("revocation store unreachable", zap.Error(err))
			return apperrors.NewInternalError(err)
		}
		m.logger.Info("login token rejected", zap.Error(err))
		return apperrors.NewUnauthorized(genericAuthFailure)
	}

	identity, ok := claims.(*LoginClaims)
	if !ok {
		m.logger.Warn("unexpected claims variant for login purpose")
		return apperrors.NewUnauthorized(genericAuthFailure)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// BearerToken extracts the bearer string from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// IdentityFromContext retrieves the authenticated identity stashed by Handle.
func IdentityFromContext(c *fiber.Ctx) (*LoginClaims, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*LoginClaims)
	return identity, ok
}
